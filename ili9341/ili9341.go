// Package ili9341 controls an ILI9341 TFT display via SPI.
//
// The ILI9341 is a 16-bit RGB565 controller driving up to 240x320 pixels.
// This driver implements the display.Drawer interface from periph.io.
//
// See the examples for how to use this package.
package ili9341

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"github.com/flavioheleno/tileblit/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Controller commands.
const (
	cmdSoftReset   = 0x01
	cmdSleepIn     = 0x10
	cmdSleepOut    = 0x11
	cmdInvertOff   = 0x20
	cmdInvertOn    = 0x21
	cmdDisplayOff  = 0x28
	cmdDisplayOn   = 0x29
	cmdColumnAddr  = 0x2A
	cmdPageAddr    = 0x2B
	cmdMemoryWrite = 0x2C
	cmdMemoryCtrl  = 0x36
	cmdPixelFormat = 0x3A
)

// Memory access control (MADCTL) bits.
const (
	madctlMY  = 0x80 // Row address order
	madctlMX  = 0x40 // Column address order
	madctlMV  = 0x20 // Row/column exchange
	madctlBGR = 0x08 // BGR panel
)

// Native panel size in portrait orientation.
const (
	panelW = 240
	panelH = 320
)

// defaultMaxTxSize is used when the SPI connection does not report its limit.
const defaultMaxTxSize = 4096

// ErrHalted is returned by every operation after Halt.
var ErrHalted = errors.New("ili9341: halted")

// Orientation selects how the panel memory is mapped onto the glass.
type Orientation int

const (
	Landscape        Orientation = iota // 320x240, connector on the right
	Portrait                            // 240x320
	LandscapeFlipped                    // 320x240, rotated 180°
	PortraitFlipped                     // 240x320, rotated 180°
)

var orientationNames = [...]string{"landscape", "portrait", "landscape-flipped", "portrait-flipped"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// ParseOrientation parses the name returned by Orientation.String.
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return Orientation(i), nil
		}
	}
	return 0, fmt.Errorf("ili9341: unknown orientation %q", s)
}

// landscape reports whether rows and columns are exchanged.
func (o Orientation) landscape() bool {
	return o == Landscape || o == LandscapeFlipped
}

// madctl returns the memory access control byte for the orientation.
func (o Orientation) madctl(bgr bool) byte {
	var v byte
	switch o {
	case Portrait:
		v = madctlMX
	case Landscape:
		v = madctlMV
	case PortraitFlipped:
		v = madctlMY
	case LandscapeFlipped:
		v = madctlMX | madctlMY | madctlMV
	}
	if bgr {
		v |= madctlBGR
	}
	return v
}

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Display dimensions in pixels, after orientation is applied
	W int // Width (default: 320)
	H int // Height (default: 240)

	Orientation Orientation
	BGR         bool // Panel wired with blue and red swapped

	// Optional hardware reset pin
	RST gpio.PinOut // Reset pin (optional, nil if not used)
}

// validate checks the dimensions against the panel size for the orientation.
func (o *Opts) validate() error {
	if o.Orientation < Landscape || o.Orientation > PortraitFlipped {
		return fmt.Errorf("ili9341: invalid orientation %d", int(o.Orientation))
	}
	maxW, maxH := panelW, panelH
	if o.Orientation.landscape() {
		maxW, maxH = panelH, panelW
	}
	if o.W <= 0 || o.W > maxW {
		return fmt.Errorf("ili9341: width must be between 1 and %d", maxW)
	}
	if o.H <= 0 || o.H > maxH {
		return fmt.Errorf("ili9341: height must be between 1 and %d", maxH)
	}
	return nil
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	// Communication
	c         conn.Conn   // SPI connection
	dc        gpio.PinOut // Data/Command pin
	rst       gpio.PinOut // Reset pin (optional)
	maxTxSize int

	// Display geometry
	rect        image.Rectangle
	orientation Orientation
	bgr         bool

	// Conversion buffer for the slow Draw path, allocated on first use
	scratch []byte

	sleep  func(time.Duration)
	halted bool
}

var _ display.Drawer = &Dev{}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for 16MHz, Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (320x240 landscape).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: panelH, H: panelW}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("ili9341: dc pin is required")
	}

	// Datasheet write cycle is 100ns; 16MHz leaves margin for long jumper wires.
	c, err := p.Connect(16*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w", err)
	}

	d := newDev(c, dc, opts)
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		d.maxTxSize = l.MaxTxSize()
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(c conn.Conn, dc gpio.PinOut, opts *Opts) *Dev {
	return &Dev{
		c:           c,
		dc:          dc,
		rst:         opts.RST,
		maxTxSize:   defaultMaxTxSize,
		rect:        image.Rect(0, 0, opts.W, opts.H),
		orientation: opts.Orientation,
		bgr:         opts.BGR,
		sleep:       time.Sleep,
	}
}

// init sends the initialization sequence to the display.
func (d *Dev) init() error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
		}
		d.sleep(10 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
		}
		d.sleep(120 * time.Millisecond)
	}

	if err := d.sendCommand(cmdSoftReset); err != nil {
		return err
	}
	d.sleep(150 * time.Millisecond)

	if err := d.sendCommand(cmdSleepOut); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)

	if err := d.sendCommand(cmdPixelFormat, 0x55); err != nil { // 16 bits per pixel
		return err
	}
	if err := d.sendCommand(cmdMemoryCtrl, d.orientation.madctl(d.bgr)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdInvertOff); err != nil {
		return err
	}
	return d.sendCommand(cmdDisplayOn)
}

// sendCommand sends a command byte followed by its parameters.
func (d *Dev) sendCommand(cmd byte, params ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.sendData(params)
}

// sendData sends data bytes, split to fit the connection's transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := min(len(data), d.maxTxSize)
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// writeRect writes big-endian RGB565 pixel data to a rectangular region of the display.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	if len(pixels) != 2*r.Dx()*r.Dy() {
		return errors.New("ili9341: invalid buffer size")
	}

	x0, x1 := r.Min.X, r.Max.X-1
	y0, y1 := r.Min.Y, r.Max.Y-1
	if err := d.sendCommand(cmdColumnAddr, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdPageAddr, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdMemoryWrite); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes raw big-endian RGB565 pixel data covering the whole display.
// The data must be exactly d.rect.Dx() * d.rect.Dy() * 2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != 2*d.rect.Dx()*d.rect.Dy() {
		return 0, errors.New("ili9341: invalid buffer size")
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws src onto the display.
// The dst rectangle specifies the destination region on the display.
// The src pixel at sp is drawn at dst.Min.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	// Clip to display bounds, moving sp along with dst.Min
	clipped := dst.Intersect(d.rect)
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(dst.Min))
	dst = clipped

	// Fast path: source already holds wire-order pixels for exactly this region
	if img, ok := src.(*rgb565.Image); ok && img.BigEndian() {
		if img.Rect == (image.Rectangle{Min: sp, Max: sp.Add(dst.Size())}) && img.Stride == 2*dst.Dx() {
			return d.writeRect(dst, img.Pix)
		}
	}

	// Slow path: convert into the scratch buffer
	if d.scratch == nil {
		d.scratch = make([]byte, 2*d.rect.Dx()*d.rect.Dy())
	}
	n := 2 * dst.Dx() * dst.Dy()
	conv := &rgb565.Image{
		Pix:    d.scratch[:n],
		Stride: 2 * dst.Dx(),
		Rect:   image.Rectangle{Max: dst.Size()},
		Order:  binary.BigEndian,
	}
	draw.Draw(conv, conv.Rect, src, sp, draw.Src)
	return d.writeRect(dst, conv.Pix)
}

// SetOrientation changes the memory mapping of the panel.
// The logical bounds are swapped when switching between portrait and landscape.
func (d *Dev) SetOrientation(o Orientation) error {
	if d.halted {
		return ErrHalted
	}
	if o < Landscape || o > PortraitFlipped {
		return fmt.Errorf("ili9341: invalid orientation %d", int(o))
	}
	if err := d.sendCommand(cmdMemoryCtrl, o.madctl(d.bgr)); err != nil {
		return err
	}
	if o.landscape() != d.orientation.landscape() {
		d.rect = image.Rect(0, 0, d.rect.Dy(), d.rect.Dx())
		d.scratch = nil
	}
	d.orientation = o
	return nil
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	cmd := byte(cmdInvertOff)
	if invert {
		cmd = cmdInvertOn
	}
	return d.sendCommand(cmd)
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	if err := d.sendCommand(cmdDisplayOff); err != nil {
		return err
	}
	return d.sendCommand(cmdSleepIn)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
