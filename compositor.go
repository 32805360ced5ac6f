package tileblit

import (
	"github.com/flavioheleno/tileblit/jpegdec"
	"github.com/flavioheleno/tileblit/rgb565"
)

// Composite copies a decoded tile into the frame buffer.
//
// Tile rows are W pixels apart in the source and the frame width apart in the
// destination, so row ry lands at flat offset (Y+ry)*width + X. Every offset is
// checked before the write; the first one outside the buffer, or outside the
// tile's own pixel slice, abandons the rest of the tile and Composite returns
// false. Pixels written before that point stay in place.
//
// 16-bit tiles are copied as is, 8-bit tiles are expanded from luma. Tiles of
// any other depth are dropped without writing. A tile with no rows or no
// columns writes nothing and succeeds.
//
// t is only read during the call.
func (fb *FrameBuffer) Composite(t *jpegdec.Tile) bool {
	var n int
	switch t.BPP {
	case 16:
		n = len(t.Pix)
	case 8:
		n = len(t.Gray)
	default:
		fb.unsupported++
		return false
	}

	if t.W <= 0 || t.H <= 0 {
		return true
	}

	// Origins this far out can only produce out-of-range offsets, and
	// rejecting them keeps the arithmetic below from overflowing.
	limit := len(fb.pix)
	if t.X < -limit || t.X > limit || t.Y < -limit || t.Y > limit {
		fb.truncated++
		return false
	}

	for ry := 0; ry < t.H; ry++ {
		src := ry * t.W
		dst := (ry+t.Y)*fb.w + t.X
		for rx := 0; rx < t.W; rx++ {
			s, d := src+rx, dst+rx
			if d < 0 || d >= limit || s >= n {
				fb.truncated++
				return false
			}
			if t.BPP == 16 {
				fb.pix[d] = t.Pix[s]
			} else {
				fb.pix[d] = uint16(rgb565.Gray(t.Gray[s]))
			}
		}
	}
	return true
}
