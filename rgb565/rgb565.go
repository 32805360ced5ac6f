// Package rgb565 provides a 16-bit RGB565 image format for SPI TFT displays.
package rgb565

import (
	"encoding/binary"
	"image"
	"image/color"
)

// RGB565 is a packed 16-bit color: red in bits 15-11, green in 10-5, blue in 4-0.
type RGB565 uint16

// Pack converts 8-bit channels to RGB565, dropping the low bits.
func Pack(r, g, b uint8) RGB565 {
	return RGB565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Gray returns the RGB565 color closest to the 8-bit luma value y.
func Gray(y uint8) RGB565 {
	return Pack(y, y, y)
}

// RGBA converts the RGB565 color to standard RGBA.
// Each channel is widened by replicating its top bits, so 0x1F maps to 0xFFFF.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F

	r = (r5<<3 | r5>>2) * 0x101
	g = (g6<<2 | g6>>4) * 0x101
	b = (b5<<3 | b5>>2) * 0x101
	return r, g, b, 0xFFFF
}

func toRGB565(c color.Color) color.Color {
	if p, ok := c.(RGB565); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colors to RGB565.
var Model = color.ModelFunc(toRGB565)

// Image is an RGB565 image stored as 2 bytes per pixel.
type Image struct {
	Pix    []byte           // Pixel data (2 bytes per pixel)
	Stride int              // Bytes per row
	Rect   image.Rectangle  // Image bounds
	Order  binary.ByteOrder // Byte order of each pixel, nil means big-endian
}

// New creates a new Image with the specified bounds and byte order.
func New(r image.Rectangle, order binary.ByteOrder) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r, Order: order}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
		Order:  order,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// BigEndian reports whether pixels are stored most significant byte first.
func (p *Image) BigEndian() bool {
	return p.Order == nil || p.Order == binary.BigEndian
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the RGB565 color of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) RGB565 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.PixOffset(x, y)
	return RGB565(p.order().Uint16(p.Pix[i : i+2]))
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(RGB565))
}

// SetRGB565 sets the RGB565 color of the pixel at (x, y).
func (p *Image) SetRGB565(x, y int, c RGB565) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.order().PutUint16(p.Pix[i:i+2], uint16(c))
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

func (p *Image) order() binary.ByteOrder {
	if p.Order == nil {
		return binary.BigEndian
	}
	return p.Order
}
