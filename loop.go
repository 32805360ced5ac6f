package tileblit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/flavioheleno/tileblit/jpegdec"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// ErrDisplayWrite wraps a failed draw when display errors are fatal.
var ErrDisplayWrite = errors.New("tileblit: display write failed")

// State is the phase of the current loop iteration.
type State int

const (
	Idle State = iota
	Decoding
	Blitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Blitting:
		return "blitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Opts is the configuration for a Loop.
type Opts struct {
	Seed   int64        // PRNG seed, fixed so placements repeat across runs
	Logger *slog.Logger // Defaults to slog.Default()

	// SkipDisplayErrors logs a failed draw and moves on to the next
	// iteration instead of stopping the loop.
	SkipDisplayErrors bool

	// OnDecode, if set, is called after every decode session.
	OnDecode func(o Outcome, elapsed time.Duration)
}

// Loop decodes the source into the frame buffer, draws it at a random
// origin and toggles the LED, once per Step.
type Loop struct {
	dec    Decoder
	src    []byte
	fb     *FrameBuffer
	sink   jpegdec.DrawFunc
	ctrl   *Controller
	drawer display.Drawer
	led    gpio.PinOut // Optional

	log  *slog.Logger
	opts Opts

	state      State
	ledOn      bool
	iterations uint64
}

// NewLoop wires the loop and turns the LED off.
// led may be nil when the board has no indicator.
func NewLoop(dec Decoder, src []byte, fb *FrameBuffer, drawer display.Drawer, led gpio.PinOut, opts *Opts) (*Loop, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if dec == nil || fb == nil || drawer == nil {
		return nil, errors.New("tileblit: decoder, frame buffer and display are required")
	}

	ctrl, err := NewController(fb.Size(), drawer.Bounds(), rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return nil, err
	}

	l := &Loop{
		dec:    dec,
		src:    src,
		fb:     fb,
		sink:   fb.Sink(),
		ctrl:   ctrl,
		drawer: drawer,
		led:    led,
		log:    opts.Logger,
		opts:   *opts,
	}
	if l.log == nil {
		l.log = slog.Default()
	}

	if led != nil {
		if err := led.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("tileblit: failed to turn LED off: %w", err)
		}
	}
	return l, nil
}

// Step runs one iteration: decode, blit, LED toggle.
//
// A failed decode leaves the frame buffer as it was and the previous frame
// is drawn again. A failed draw is returned wrapped in ErrDisplayWrite,
// without toggling the LED, unless SkipDisplayErrors is set.
func (l *Loop) Step() error {
	l.state = Decoding
	l.decode()

	l.state = Blitting
	at, err := l.ctrl.PlaceAndDraw(l.fb, l.drawer)
	if err != nil {
		if !l.opts.SkipDisplayErrors {
			l.state = Idle
			return fmt.Errorf("%w: %w", ErrDisplayWrite, err)
		}
		l.log.Error("tileblit: display write failed, skipping frame",
			"err", err,
			"iteration", l.iterations,
		)
	} else {
		l.log.Debug("tileblit: frame drawn",
			"x", at.X,
			"y", at.Y,
			"iteration", l.iterations,
		)
	}

	l.toggleLED()
	l.iterations++
	l.state = Idle
	return nil
}

// decode runs one decode session into the frame buffer.
func (l *Loop) decode() {
	start := time.Now()
	outcome, err := Decode(l.dec, l.src, l.sink)
	if l.opts.OnDecode != nil {
		l.opts.OnDecode(outcome, time.Since(start))
	}
	if err != nil {
		l.log.Warn("tileblit: decode failed, reusing previous frame",
			"outcome", outcome,
			"err", err,
			"iteration", l.iterations,
		)
	}
}

// toggleLED flips the logical LED state even when the pin write fails.
func (l *Loop) toggleLED() {
	l.ledOn = !l.ledOn
	if l.led == nil {
		return
	}
	level := gpio.Low
	if l.ledOn {
		level = gpio.High
	}
	if err := l.led.Out(level); err != nil {
		l.log.Warn("tileblit: LED write failed", "err", err)
	}
}

// Run calls Step until it fails or ctx is done.
// ctx is checked between iterations only; a stuck decode or draw blocks Run.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
}

// LEDOn reports the logical LED state.
func (l *Loop) LEDOn() bool {
	return l.ledOn
}

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return l.iterations
}

// State returns the phase the loop is in.
func (l *Loop) State() State {
	return l.state
}

// FrameBuffer returns the frame buffer the loop decodes into.
func (l *Loop) FrameBuffer() *FrameBuffer {
	return l.fb
}
