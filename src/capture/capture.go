// Package capture runs one dialog capture from window lookup to clipboard.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"win-dialog-shot/src/clipboard"
	"win-dialog-shot/src/compositor"
	"win-dialog-shot/src/geometry"
	"win-dialog-shot/src/overlay"
	"win-dialog-shot/src/region"
	"win-dialog-shot/src/screenshot"
	"win-dialog-shot/src/window"
)

// Publisher receives the finished canvas.
type Publisher interface {
	Publish(img image.Image) error
}

// Pipeline wires the OS collaborators to the geometry and compositing core.
// It is not safe for concurrent use; callers allow one Run at a time.
type Pipeline struct {
	System     window.System
	Resolver   *window.Resolver
	Grabber    screenshot.Grabber
	Compositor *compositor.Compositor
	Overlay    overlay.Overlay
	Publisher  Publisher
}

// Result describes a capture, complete or not.
type Result struct {
	Target  geometry.CaptureTarget
	Plan    region.Plan
	Elapsed time.Duration
}

// Run performs one capture. The overlay is shown only after the target windows
// have been resolved and is hidden before the clipboard is touched.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result

	target, err := window.Lookup(p.System, p.Resolver)
	if err != nil {
		return res, err
	}
	res.Target = target

	plan, err := region.Compute(target.Primary.Rect, target.OwnerRect())
	if err != nil {
		return res, err
	}
	res.Plan = plan
	if plan.Owner != nil {
		log.Printf("[OK]  Combined area: %s", plan.Enclosing)
	}

	below := target.Primary.Handle
	if target.Owner != nil {
		below = target.Owner.Handle
	}

	ov := p.Overlay
	if ov == nil {
		ov = overlay.Noop{}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	var frame *image.RGBA
	err = overlay.Scoped(ctx, ov, below, func() error {
		var gerr error
		frame, gerr = grab(ctx, p.Grabber, plan.Enclosing)
		return gerr
	})
	if err != nil {
		if !isContextErr(err) && !errors.Is(err, screenshot.ErrGrabFailure) {
			err = fmt.Errorf("%w: %w", screenshot.ErrGrabFailure, err)
		}
		return res, err
	}

	canvas := p.Compositor.Composite(frame, image.Pt(plan.Width(), plan.Height()), plan.Boxes())
	// A capture past its deadline must not replace the clipboard.
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := p.Publisher.Publish(canvas); err != nil {
		return res, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

type grabResult struct {
	frame *image.RGBA
	err   error
}

// grab returns as soon as ctx is done. A grabber that never returns leaks its
// goroutine, but the loop is free to serve the next trigger.
func grab(ctx context.Context, g screenshot.Grabber, rect geometry.Rect) (*image.RGBA, error) {
	ch := make(chan grabResult, 1)
	go func() {
		frame, err := g.Grab(rect)
		ch <- grabResult{frame, err}
	}()
	select {
	case r := <-ch:
		return r.frame, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Handle runs a capture and logs the outcome with its error kind. It never
// panics on capture errors; the error is returned for callers that report it.
func (p *Pipeline) Handle(ctx context.Context) error {
	res, err := p.Run(ctx)
	if err != nil {
		log.Printf("[ERR] %s: %v", KindOf(err), err)
		return err
	}
	log.Printf("[OK]  Image copied to clipboard (%dx%d BMP)", res.Plan.Width(), res.Plan.Height())
	if res.Plan.Owner != nil {
		log.Printf("[OK]  Capture complete in %v: owner + dialog pasted, background filled", res.Elapsed.Round(time.Millisecond))
	} else {
		log.Printf("[OK]  Capture complete in %v", res.Elapsed.Round(time.Millisecond))
	}
	return nil
}

// Error kind names, as logged.
const (
	KindNoActiveWindow   = "NoActiveWindow"
	KindDegenerateRegion = "DegenerateRegion"
	KindGrabFailure      = "GrabFailure"
	KindClipboardError   = "ClipboardError"
	KindCancelled        = "Cancelled"
	KindUnknown          = "Unknown"
)

// KindOf classifies a capture error.
func KindOf(err error) string {
	switch {
	case errors.Is(err, window.ErrNoActiveWindow):
		return KindNoActiveWindow
	case errors.Is(err, region.ErrDegenerateRegion):
		return KindDegenerateRegion
	case errors.Is(err, screenshot.ErrGrabFailure):
		return KindGrabFailure
	case errors.Is(err, clipboard.ErrClipboard):
		return KindClipboardError
	case isContextErr(err):
		return KindCancelled
	default:
		return KindUnknown
	}
}
