package tileblit

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"

	"github.com/flavioheleno/tileblit/jpegdec"
	"github.com/flavioheleno/tileblit/rgb565"
)

// fakeDecoder delivers a fixed list of tiles.
type fakeDecoder struct {
	openErr   error
	decodeErr error
	tiles     []jpegdec.Tile

	sink                   jpegdec.DrawFunc
	opens, decodes, closes int
}

func (f *fakeDecoder) Open(data []byte, draw jpegdec.DrawFunc) error {
	f.opens++
	if f.openErr != nil {
		return f.openErr
	}
	f.sink = draw
	return nil
}

func (f *fakeDecoder) Decode(x, y int, flags jpegdec.Flags) error {
	f.decodes++
	for i := range f.tiles {
		t := f.tiles[i]
		t.X += x
		t.Y += y
		if !f.sink(&t) {
			return jpegdec.ErrAborted
		}
	}
	return f.decodeErr
}

func (f *fakeDecoder) Close() {
	f.closes++
	f.sink = nil
}

// recordDrawer is a display.Drawer that remembers what it was asked to draw.
type recordDrawer struct {
	bounds image.Rectangle
	err    error

	dsts []image.Rectangle
	last []byte
}

func (r *recordDrawer) String() string          { return "recordDrawer" }
func (r *recordDrawer) Halt() error             { return nil }
func (r *recordDrawer) ColorModel() color.Model { return rgb565.Model }
func (r *recordDrawer) Bounds() image.Rectangle { return r.bounds }

func (r *recordDrawer) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if r.err != nil {
		return r.err
	}
	r.dsts = append(r.dsts, dst)
	if img, ok := src.(*rgb565.Image); ok {
		r.last = append(r.last[:0], img.Pix...)
	}
	return nil
}

// encodeJPEG returns a w×h JPEG with a diagonal gradient.
func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), uint8((x + y) * 4), 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fill sets every pixel of fb to a position-dependent pattern.
func fill(fb *FrameBuffer) {
	for i := range fb.Pix() {
		fb.Pix()[i] = uint16(i*31 + 7)
	}
}
