// Package jpegdec is a push-style JPEG decoder.
//
// An Image is opened on a compressed byte slice together with a DrawFunc.
// Decode then delivers the picture as a sequence of tiles of at most
// TileSize×TileSize pixels, calling the DrawFunc once per tile from inside
// Decode. Tiles arrive in row-major order and are converted to RGB565, or to
// 8-bit luma when FlagGray8 is set.
//
// The zero Image is ready to use:
//
//	var img jpegdec.Image
//	if err := img.Open(data, draw); err != nil {
//		return err
//	}
//	defer img.Close()
//	return img.Decode(0, 0, 0)
package jpegdec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/flavioheleno/tileblit/rgb565"
)

// TileSize is the edge length of a full tile, one 4:2:0 MCU.
const TileSize = 16

var (
	// ErrNotOpen is returned by Decode when no image is open.
	ErrNotOpen = errors.New("jpegdec: not open")
	// ErrInvalid is returned by Open when the data is not a decodable JPEG.
	ErrInvalid = errors.New("jpegdec: invalid image")
	// ErrAborted is returned by Decode when the DrawFunc asked to stop.
	ErrAborted = errors.New("jpegdec: aborted by draw callback")
)

// Flags alter the pixel format of delivered tiles.
type Flags uint8

const (
	// FlagGray8 delivers 8-bit luma tiles instead of RGB565.
	FlagGray8 Flags = 1 << iota
)

// Tile is one block of decoded pixels.
//
// Pix (BPP 16) or Gray (BPP 8) holds exactly W×H pixels in row-major order.
// Both slices point into memory owned by the decoder and are overwritten by
// the next tile: a DrawFunc must copy what it needs before returning.
type Tile struct {
	X, Y int // Origin in the destination image
	W, H int
	BPP  int
	Pix  []uint16
	Gray []uint8
}

// DrawFunc receives each decoded tile. Returning false stops decoding.
type DrawFunc func(t *Tile) bool

// Image holds the state of one decode session.
type Image struct {
	data []byte
	draw DrawFunc
	cfg  image.Config
	open bool
	err  error

	tile Tile
	pix  [TileSize * TileSize]uint16
	gray [TileSize * TileSize]uint8
}

// Open binds the image to data and draw and parses the JPEG header.
// Any previous session is closed first.
func (img *Image) Open(data []byte, draw DrawFunc) error {
	img.Close()
	img.cfg = image.Config{}
	img.err = nil

	if draw == nil {
		img.err = errors.New("jpegdec: nil draw callback")
		return img.err
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		img.err = fmt.Errorf("%w: %v", ErrInvalid, err)
		return img.err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		img.err = fmt.Errorf("%w: empty image", ErrInvalid)
		return img.err
	}

	img.data = data
	img.draw = draw
	img.cfg = cfg
	img.open = true
	return nil
}

// Decode decodes the open image and pushes its tiles to the DrawFunc.
// Tile origins are offset by (x, y).
func (img *Image) Decode(x, y int, flags Flags) error {
	if !img.open {
		img.err = ErrNotOpen
		return img.err
	}

	src, err := jpeg.Decode(bytes.NewReader(img.data))
	if err != nil {
		img.err = fmt.Errorf("jpegdec: %w", err)
		return img.err
	}

	b := src.Bounds()
	for ty := 0; ty < b.Dy(); ty += TileSize {
		for tx := 0; tx < b.Dx(); tx += TileSize {
			r := image.Rect(tx, ty, min(tx+TileSize, b.Dx()), min(ty+TileSize, b.Dy())).Add(b.Min)
			t := img.fill(src, r, flags)
			t.X, t.Y = x+tx, y+ty
			if !img.draw(t) {
				img.err = ErrAborted
				return img.err
			}
		}
	}
	return nil
}

// fill converts the pixels of src inside r into the tile buffers.
func (img *Image) fill(src image.Image, r image.Rectangle, flags Flags) *Tile {
	t := &img.tile
	*t = Tile{W: r.Dx(), H: r.Dy()}
	n := t.W * t.H

	if flags&FlagGray8 != 0 {
		t.BPP = 8
		t.Gray = img.gray[:n]
		i := 0
		for py := r.Min.Y; py < r.Max.Y; py++ {
			for px := r.Min.X; px < r.Max.X; px++ {
				t.Gray[i] = luma(src, px, py)
				i++
			}
		}
		return t
	}

	t.BPP = 16
	t.Pix = img.pix[:n]
	i := 0
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			t.Pix[i] = uint16(pixel(src, px, py))
			i++
		}
	}
	return t
}

// pixel returns the RGB565 value at (x, y), with fast paths for the
// image types image/jpeg produces.
func pixel(src image.Image, x, y int) rgb565.RGB565 {
	switch s := src.(type) {
	case *image.YCbCr:
		c := s.YCbCrAt(x, y)
		r, g, b := color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
		return rgb565.Pack(r, g, b)
	case *image.Gray:
		return rgb565.Gray(s.GrayAt(x, y).Y)
	}
	return rgb565.Model.Convert(src.At(x, y)).(rgb565.RGB565)
}

func luma(src image.Image, x, y int) uint8 {
	switch s := src.(type) {
	case *image.YCbCr:
		return s.YCbCrAt(x, y).Y
	case *image.Gray:
		return s.GrayAt(x, y).Y
	}
	return color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
}

// Close ends the session. It is safe to call on a closed Image.
func (img *Image) Close() {
	img.data = nil
	img.draw = nil
	img.open = false
}

// LastError returns the error of the most recent Open or Decode.
func (img *Image) LastError() error {
	return img.err
}

// Width returns the width of the open image.
func (img *Image) Width() int {
	return img.cfg.Width
}

// Height returns the height of the open image.
func (img *Image) Height() int {
	return img.cfg.Height
}
