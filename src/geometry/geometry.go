package geometry

import (
	"errors"
	"fmt"
	"image"
)

// ErrSameWindow is returned when an owner shares the primary window's handle.
var ErrSameWindow = errors.New("owner window is the primary window")

// Rect is a rectangle in virtual-screen coordinates. Right and Bottom are exclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether r has zero or negative extent on either axis.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// Union returns the component-wise bounding rectangle of r and o.
// Unlike image.Rectangle.Union it does not skip empty operands.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Translate shifts all four edges by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Origin returns the top-left corner.
func (r Rect) Origin() image.Point { return image.Pt(r.Left, r.Top) }

// Image converts r to an image.Rectangle without canonicalising it.
func (r Rect) Image() image.Rectangle {
	return image.Rectangle{Min: image.Pt(r.Left, r.Top), Max: image.Pt(r.Right, r.Bottom)}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// FromImage converts an image.Rectangle to a Rect.
func FromImage(ir image.Rectangle) Rect {
	return Rect{Left: ir.Min.X, Top: ir.Min.Y, Right: ir.Max.X, Bottom: ir.Max.Y}
}

// WindowRef identifies an OS window together with its resolved bounds.
// Title is only used for diagnostics.
type WindowRef struct {
	Handle uintptr
	Rect   Rect
	Title  string
}

func (w WindowRef) String() string {
	return fmt.Sprintf("'%s' (HWND: %d) %s", w.Title, w.Handle, w.Rect)
}

// CaptureTarget pairs the foreground window with its optional owner.
type CaptureTarget struct {
	Primary WindowRef
	Owner   *WindowRef
}

// NewCaptureTarget validates that owner, when present, is a different window.
func NewCaptureTarget(primary WindowRef, owner *WindowRef) (CaptureTarget, error) {
	if owner != nil && owner.Handle == primary.Handle {
		return CaptureTarget{}, ErrSameWindow
	}
	return CaptureTarget{Primary: primary, Owner: owner}, nil
}

// OwnerRect returns the owner's rect or nil.
func (t CaptureTarget) OwnerRect() *Rect {
	if t.Owner == nil {
		return nil
	}
	r := t.Owner.Rect
	return &r
}
