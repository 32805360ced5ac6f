package tileblit

import (
	"fmt"

	"github.com/flavioheleno/tileblit/jpegdec"
)

// Decoder is a push-style decoder session. *jpegdec.Image implements it.
type Decoder interface {
	Open(data []byte, draw jpegdec.DrawFunc) error
	Decode(x, y int, flags jpegdec.Flags) error
	Close()
}

var _ Decoder = &jpegdec.Image{}

// Outcome is the result of one decode session.
type Outcome int

const (
	Success      Outcome = iota // Every tile was delivered
	OpenFailed                  // Source rejected, no tile delivered
	DecodeFailed                // Opened, but decoding did not complete
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case OpenFailed:
		return "open failed"
	case DecodeFailed:
		return "decode failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Decode runs one session of dec over src, delivering tiles to sink at
// origin (0, 0). The session is closed on every path. Decode never retries.
func Decode(dec Decoder, src []byte, sink jpegdec.DrawFunc) (Outcome, error) {
	defer dec.Close()

	if err := dec.Open(src, sink); err != nil {
		return OpenFailed, err
	}
	if err := dec.Decode(0, 0, 0); err != nil {
		return DecodeFailed, err
	}
	return Success, nil
}
