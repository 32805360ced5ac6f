package tileblit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math/rand"

	"periph.io/x/conn/v3/display"
)

// Controller places the frame at a random origin on a display.
type Controller struct {
	size   image.Point     // Image size
	bounds image.Rectangle // Display bounds
	rng    *rand.Rand
}

// NewController returns a controller for images of the given size on a
// display with the given bounds. The display must be strictly larger than
// the image on both axes.
func NewController(size image.Point, bounds image.Rectangle, rng *rand.Rand) (*Controller, error) {
	if rng == nil {
		return nil, errors.New("tileblit: nil random source")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.New("tileblit: image size must be positive")
	}
	if bounds.Dx() <= size.X || bounds.Dy() <= size.Y {
		return nil, fmt.Errorf("tileblit: display %dx%d must be larger than image %dx%d",
			bounds.Dx(), bounds.Dy(), size.X, size.Y)
	}
	return &Controller{size: size, bounds: bounds, rng: rng}, nil
}

// Place samples an origin with x in [0, dw-iw) and y in [0, dh-ih),
// relative to the display's top-left corner.
func (c *Controller) Place() image.Point {
	return image.Point{
		X: c.bounds.Min.X + c.rng.Intn(c.bounds.Dx()-c.size.X),
		Y: c.bounds.Min.Y + c.rng.Intn(c.bounds.Dy()-c.size.Y),
	}
}

// PlaceAndDraw draws the whole frame once at a fresh random origin.
// The frame is handed to d in big-endian RGB565, the ILI9341 wire format.
// Errors from d are returned unchanged.
func (c *Controller) PlaceAndDraw(fb *FrameBuffer, d display.Drawer) (image.Point, error) {
	if fb.Size() != c.size {
		return image.Point{}, fmt.Errorf("tileblit: frame is %v, controller expects %v", fb.Size(), c.size)
	}
	img := fb.Image(binary.BigEndian)
	at := c.Place()
	return at, d.Draw(image.Rectangle{Min: at, Max: at.Add(c.size)}, img, image.Point{})
}
