package tileblit

import (
	"encoding/binary"
	"errors"
	"image"

	"github.com/flavioheleno/tileblit/jpegdec"
	"github.com/flavioheleno/tileblit/rgb565"
)

// FrameBuffer is a fixed-size store of RGB565 pixels for one decoded image.
//
// Pixels are addressed as a flat array indexed by y*width+x. All memory is
// allocated by NewFrameBuffer; nothing is allocated afterwards.
type FrameBuffer struct {
	w, h int
	pix  []uint16
	raw  []byte // Wire-format view, rebuilt by Raw

	// Diagnostics
	truncated   uint64
	unsupported uint64
}

// NewFrameBuffer allocates a frame buffer holding w×h pixels.
func NewFrameBuffer(w, h int) (*FrameBuffer, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("tileblit: frame buffer size must be positive")
	}
	return &FrameBuffer{
		w:   w,
		h:   h,
		pix: make([]uint16, w*h),
		raw: make([]byte, 2*w*h),
	}, nil
}

// Size returns the logical image size.
func (fb *FrameBuffer) Size() image.Point {
	return image.Point{X: fb.w, Y: fb.h}
}

// Len returns the pixel capacity.
func (fb *FrameBuffer) Len() int {
	return len(fb.pix)
}

// Pix returns the pixel array. Callers must not retain it across a decode.
func (fb *FrameBuffer) Pix() []uint16 {
	return fb.pix
}

// Raw returns the pixels as 2 bytes each in the given byte order.
// A nil order means big-endian. The returned slice is reused by the next call.
func (fb *FrameBuffer) Raw(order binary.ByteOrder) []byte {
	if order == nil {
		order = binary.BigEndian
	}
	if len(fb.raw) != 2*len(fb.pix) {
		panic("tileblit: raw view does not match pixel count")
	}
	for i, p := range fb.pix {
		order.PutUint16(fb.raw[2*i:], p)
	}
	return fb.raw
}

// Image returns the raw view as an RGB565 image of the frame's logical size.
func (fb *FrameBuffer) Image(order binary.ByteOrder) *rgb565.Image {
	if order == nil {
		order = binary.BigEndian
	}
	return &rgb565.Image{
		Pix:    fb.Raw(order),
		Stride: 2 * fb.w,
		Rect:   image.Rect(0, 0, fb.w, fb.h),
		Order:  order,
	}
}

// Truncated returns how many tiles were cut short by the bounds check.
func (fb *FrameBuffer) Truncated() uint64 {
	return fb.truncated
}

// Unsupported returns how many tiles were dropped for their pixel depth.
func (fb *FrameBuffer) Unsupported() uint64 {
	return fb.unsupported
}

// Sink returns a draw callback that composites every tile into fb.
// Decoding continues after a truncated tile.
func (fb *FrameBuffer) Sink() jpegdec.DrawFunc {
	return func(t *jpegdec.Tile) bool {
		fb.Composite(t)
		return true
	}
}
