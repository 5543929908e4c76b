package window

import (
	"errors"
	"log"

	"win-dialog-shot/src/geometry"
)

// ErrNoActiveWindow means the OS reported no foreground window.
var ErrNoActiveWindow = errors.New("no active window")

// System is the read-only window query surface of the OS.
type System interface {
	// Foreground returns the active top-level window, or 0.
	Foreground() uintptr
	// Parent returns the immediate parent window, or 0.
	Parent(hwnd uintptr) uintptr
	// Owner returns the owner window (GW_OWNER), or 0.
	Owner(hwnd uintptr) uintptr
	// Title returns the window text, or "".
	Title(hwnd uintptr) string
}

// FrameSource reports window bounds. ExtendedFrameBounds excludes the drop shadow
// the compositor adds around top-level windows.
type FrameSource interface {
	ExtendedFrameBounds(hwnd uintptr) (geometry.Rect, error)
	WindowRect(hwnd uintptr) (geometry.Rect, error)
}

// Native is what the platform backend provides.
type Native interface {
	System
	FrameSource
}

// Resolver picks the most accurate rectangle a FrameSource can provide.
type Resolver struct {
	src FrameSource
}

func NewResolver(src FrameSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the shadow-free bounds when available, else the raw window rect.
// A handle neither tier can resolve yields the zero Rect, which the planner rejects.
func (r *Resolver) Resolve(hwnd uintptr) geometry.Rect {
	rect, err := r.src.ExtendedFrameBounds(hwnd)
	if err == nil && !rect.Empty() {
		return rect
	}
	if err != nil {
		log.Printf("window: extended frame bounds unavailable for %d, using window rect: %v", hwnd, err)
	}

	rect, err = r.src.WindowRect(hwnd)
	if err != nil {
		log.Printf("window: window rect failed for %d: %v", hwnd, err)
		return geometry.Rect{}
	}
	return rect
}

// OwnerOf returns the window that logically owns hwnd: its parent, or when there
// is none, its owner. Returns 0 when neither exists or it is hwnd itself.
func OwnerOf(sys System, hwnd uintptr) uintptr {
	owner := sys.Parent(hwnd)
	if owner == 0 {
		owner = sys.Owner(hwnd)
	}
	if owner == hwnd {
		return 0
	}
	return owner
}

// Lookup resolves the foreground window and its owner into a capture target.
func Lookup(sys System, res *Resolver) (geometry.CaptureTarget, error) {
	hwnd := sys.Foreground()
	if hwnd == 0 {
		return geometry.CaptureTarget{}, ErrNoActiveWindow
	}

	primary := geometry.WindowRef{Handle: hwnd, Rect: res.Resolve(hwnd), Title: sys.Title(hwnd)}
	log.Printf("[INFO] Active window: %s", primary)

	var owner *geometry.WindowRef
	if oh := OwnerOf(sys, hwnd); oh != 0 {
		owner = &geometry.WindowRef{Handle: oh, Rect: res.Resolve(oh), Title: sys.Title(oh)}
		log.Printf("[INFO] Owner window: %s", owner)
	}

	return geometry.NewCaptureTarget(primary, owner)
}
