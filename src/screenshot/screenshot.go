package screenshot

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"win-dialog-shot/src/geometry"
)

// ErrGrabFailure wraps every failure of the raw pixel grab.
var ErrGrabFailure = errors.New("screen grab failed")

// Grabber copies a rectangle of the virtual screen into memory.
type Grabber interface {
	Grab(rect geometry.Rect) (*image.RGBA, error)
}

// GrabberFunc adapts a function to the Grabber interface.
type GrabberFunc func(rect geometry.Rect) (*image.RGBA, error)

func (f GrabberFunc) Grab(rect geometry.Rect) (*image.RGBA, error) { return f(rect) }

type displayGrabber struct{}

// New returns the default Grabber backed by kbinani/screenshot.
func New() Grabber { return displayGrabber{} }

// Grab captures rect. The returned image is rect.Width() x rect.Height() with Min at (0,0).
func (displayGrabber) Grab(rect geometry.Rect) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("%w: invalid region dimensions: width=%d, height=%d", ErrGrabFailure, rect.Width(), rect.Height())
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("%w: no active displays found", ErrGrabFailure)
	}

	img, err := screenshot.CaptureRect(rect.Image())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrabFailure, err)
	}
	if img.Bounds().Dx() != rect.Width() || img.Bounds().Dy() != rect.Height() {
		return nil, fmt.Errorf("%w: got %dx%d for %s", ErrGrabFailure, img.Bounds().Dx(), img.Bounds().Dy(), rect)
	}
	return img, nil
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (geometry.Rect, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return geometry.Rect{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return geometry.FromImage(union), nil
}
