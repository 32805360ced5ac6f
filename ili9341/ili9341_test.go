package ili9341

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/flavioheleno/tileblit/rgb565"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// newTestDev returns a device whose bus expects exactly ops.
func newTestDev(opts *Opts, ops ...conntest.IO) (*Dev, *conntest.Playback) {
	bus := &conntest.Playback{Ops: ops, DontPanic: true}
	d := newDev(bus, &gpiotest.Pin{N: "DC"}, opts)
	d.sleep = func(time.Duration) {}
	return d, bus
}

func w(b ...byte) conntest.IO {
	return conntest.IO{W: b}
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Opts
		wantErr bool
	}{
		{"valid 320x240 landscape", Opts{W: 320, H: 240}, false},
		{"valid 240x320 portrait", Opts{W: 240, H: 320, Orientation: Portrait}, false},
		{"valid 128x128", Opts{W: 128, H: 128}, false},
		{"valid 1x1 (minimum)", Opts{W: 1, H: 1}, false},
		{"width zero", Opts{W: 0, H: 240}, true},
		{"height zero", Opts{W: 320, H: 0}, true},
		{"landscape too tall", Opts{W: 320, H: 320}, true},
		{"portrait too wide", Opts{W: 320, H: 240, Orientation: Portrait}, true},
		{"flipped landscape", Opts{W: 320, H: 240, Orientation: LandscapeFlipped}, false},
		{"bad orientation", Opts{W: 10, H: 10, Orientation: Orientation(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOrientation(t *testing.T) {
	for _, o := range []Orientation{Landscape, Portrait, LandscapeFlipped, PortraitFlipped} {
		got, err := ParseOrientation(o.String())
		if err != nil {
			t.Fatalf("ParseOrientation(%q) error = %v", o, err)
		}
		if got != o {
			t.Errorf("ParseOrientation(%q) = %v, want %v", o, got, o)
		}
	}
	if _, err := ParseOrientation("sideways"); err == nil {
		t.Error("ParseOrientation(sideways) should fail")
	}
	if got := Orientation(7).String(); got != "Orientation(7)" {
		t.Errorf("String() = %q, want Orientation(7)", got)
	}
}

func TestMadctl(t *testing.T) {
	tests := []struct {
		o    Orientation
		bgr  bool
		want byte
	}{
		{Portrait, false, 0x40},
		{Landscape, false, 0x20},
		{PortraitFlipped, false, 0x80},
		{LandscapeFlipped, false, 0xE0},
		{Portrait, true, 0x48},
		{Landscape, true, 0x28},
	}

	for _, tt := range tests {
		if got := tt.o.madctl(tt.bgr); got != tt.want {
			t.Errorf("%v.madctl(%v) = %#02x, want %#02x", tt.o, tt.bgr, got, tt.want)
		}
	}
}

func TestDevBounds(t *testing.T) {
	d, _ := newTestDev(&Opts{W: 320, H: 240})
	want := image.Rect(0, 0, 320, 240)
	if got := d.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if d.ColorModel() != rgb565.Model {
		t.Error("ColorModel() did not return rgb565.Model")
	}
	if got := d.String(); got != "ili9341.Dev{320x240}" {
		t.Errorf("String() = %q, want %q", got, "ili9341.Dev{320x240}")
	}
}

func TestInit(t *testing.T) {
	rst := &gpiotest.Pin{N: "RST", L: gpio.Low}
	d, bus := newTestDev(&Opts{W: 320, H: 240, BGR: true, RST: rst},
		w(cmdSoftReset),
		w(cmdSleepOut),
		w(cmdPixelFormat), w(0x55),
		w(cmdMemoryCtrl), w(0x28),
		w(cmdInvertOff),
		w(cmdDisplayOn),
	)

	if err := d.init(); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if rst.L != gpio.High {
		t.Error("RST should be released (high) after init")
	}
}

func TestWriteRectChunked(t *testing.T) {
	// Command parameters are split by the same limit as pixel data
	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x00, 0x0A, 0x00), w(0x0B),
		w(cmdPageAddr), w(0x00, 0x14, 0x00), w(0x14),
		w(cmdMemoryWrite),
		w(0x01, 0x02, 0x03),
		w(0x04),
	)
	d.maxTxSize = 3

	if err := d.writeRect(image.Rect(10, 20, 12, 21), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("writeRect() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteRectHighCoordinates(t *testing.T) {
	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x01, 0x3F, 0x01, 0x3F),
		w(cmdPageAddr), w(0x00, 0xEF, 0x00, 0xEF),
		w(cmdMemoryWrite),
		w(0xFF, 0xFF),
	)

	if err := d.writeRect(image.Rect(319, 239, 320, 240), []byte{0xFF, 0xFF}); err != nil {
		t.Fatalf("writeRect() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDrawFastPath(t *testing.T) {
	src := rgb565.New(image.Rect(0, 0, 2, 2), nil)
	copy(src.Pix, []byte{0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F, 0xFF, 0xFF})

	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x00, 0x05, 0x00, 0x06),
		w(cmdPageAddr), w(0x00, 0x07, 0x00, 0x08),
		w(cmdMemoryWrite),
		w(0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F, 0xFF, 0xFF),
	)

	if err := d.Draw(image.Rect(5, 7, 7, 9), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if d.scratch != nil {
		t.Error("fast path should not allocate the scratch buffer")
	}
}

func TestDrawSlowPath(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	src.Set(1, 0, color.RGBA{0, 0, 0xFF, 0xFF})

	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x00, 0x00, 0x00, 0x01),
		w(cmdPageAddr), w(0x00, 0x00, 0x00, 0x00),
		w(cmdMemoryWrite),
		w(0xF8, 0x00, 0x00, 0x1F),
	)

	if err := d.Draw(image.Rect(0, 0, 2, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDrawLittleEndianSource(t *testing.T) {
	src := rgb565.New(image.Rect(0, 0, 1, 1), binary.LittleEndian)
	src.SetRGB565(0, 0, 0xF800)

	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x00, 0x00, 0x00, 0x00),
		w(cmdPageAddr), w(0x00, 0x00, 0x00, 0x00),
		w(cmdMemoryWrite),
		w(0xF8, 0x00),
	)

	if err := d.Draw(image.Rect(0, 0, 1, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDrawClipped(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	src.Set(1, 0, color.RGBA{0, 0, 0xFF, 0xFF})

	// Left column falls off the display; only the blue pixel is sent
	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdColumnAddr), w(0x00, 0x00, 0x00, 0x00),
		w(cmdPageAddr), w(0x00, 0x00, 0x00, 0x00),
		w(cmdMemoryWrite),
		w(0x00, 0x1F),
	)

	if err := d.Draw(image.Rect(-1, 0, 1, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDrawOutsideIsNoop(t *testing.T) {
	d, bus := newTestDev(&Opts{W: 320, H: 240})
	if err := d.Draw(image.Rect(400, 0, 410, 10), image.NewRGBA(image.Rect(0, 0, 10, 10)), image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDevHalt(t *testing.T) {
	d, bus := newTestDev(&Opts{W: 320, H: 240},
		w(cmdDisplayOff),
		w(cmdSleepIn),
	)

	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}

	if err := d.Invert(true); !errors.Is(err, ErrHalted) {
		t.Errorf("Invert() error = %v, want ErrHalted", err)
	}
	if err := d.SetOrientation(Portrait); !errors.Is(err, ErrHalted) {
		t.Errorf("SetOrientation() error = %v, want ErrHalted", err)
	}
	if _, err := d.Write(make([]byte, 320*240*2)); !errors.Is(err, ErrHalted) {
		t.Errorf("Write() error = %v, want ErrHalted", err)
	}
	if err := d.Draw(d.Bounds(), image.NewRGBA(d.Bounds()), image.Point{}); !errors.Is(err, ErrHalted) {
		t.Errorf("Draw() error = %v, want ErrHalted", err)
	}
}

func TestWriteBufferSizeValidation(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		bufferSize int
	}{
		{"320x240 too small", 320, 240, 320*240*2 - 1},
		{"320x240 too large", 320, 240, 320*240*2 + 1},
		{"128x128 too small", 128, 128, 128*128*2 - 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDev(&Opts{W: tt.width, H: tt.height})

			_, err := d.Write(make([]byte, tt.bufferSize))
			if err == nil {
				t.Fatal("Write should fail with invalid buffer size")
			}
			if err.Error() != "ili9341: invalid buffer size" {
				t.Errorf("Write error = %v, want %q", err, "ili9341: invalid buffer size")
			}
		})
	}
}

func TestSetOrientation(t *testing.T) {
	d, bus := newTestDev(&Opts{W: 320, H: 200},
		w(cmdMemoryCtrl), w(0x40),
		w(cmdMemoryCtrl), w(0x80),
	)

	if err := d.SetOrientation(Portrait); err != nil {
		t.Fatalf("SetOrientation(Portrait) error = %v", err)
	}
	if want := image.Rect(0, 0, 200, 320); d.Bounds() != want {
		t.Errorf("Bounds() = %v, want %v", d.Bounds(), want)
	}

	// Portrait to flipped portrait keeps the bounds
	if err := d.SetOrientation(PortraitFlipped); err != nil {
		t.Fatalf("SetOrientation(PortraitFlipped) error = %v", err)
	}
	if want := image.Rect(0, 0, 200, 320); d.Bounds() != want {
		t.Errorf("Bounds() = %v, want %v", d.Bounds(), want)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}

	if err := d.SetOrientation(Orientation(-1)); err == nil {
		t.Error("SetOrientation should reject invalid orientation")
	}
}
