package overlay

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"time"
)

// Overlay is a full-screen solid backdrop shown under the captured windows while
// the screen is sampled. It is cosmetic: a failed Show never aborts a capture.
type Overlay interface {
	// Show displays the overlay directly beneath the window below in z-order and
	// returns once it is on screen. below == 0 places it at the top of the
	// non-topmost band.
	Show(ctx context.Context, below uintptr) error
	Hide() error
}

// Options configures the platform overlay.
type Options struct {
	Color color.RGBA
	// Delay is waited after Show only when no compositor barrier is available.
	Delay time.Duration
}

// Noop is used when the overlay is disabled or unsupported.
type Noop struct{}

func (Noop) Show(context.Context, uintptr) error { return nil }
func (Noop) Hide() error                         { return nil }

// Scoped shows ov beneath below, runs fn and hides ov on every exit path,
// including a panic in fn.
func Scoped(ctx context.Context, ov Overlay, below uintptr, fn func() error) error {
	defer hide(ov)
	if err := ov.Show(ctx, below); err != nil {
		log.Printf("overlay: show failed, capturing without backdrop: %v", err)
	}
	return fn()
}

func hide(ov Overlay) {
	if err := ov.Hide(); err != nil {
		log.Printf("overlay: hide failed: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("overlay delay: %w", ctx.Err())
	}
}
