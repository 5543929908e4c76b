//go:build windows

package overlay

import (
	"testing"
	"time"
)

func TestHideAbandonsStuckWindow(t *testing.T) {
	saved := closeTimeout
	closeTimeout = 20 * time.Millisecond
	defer func() { closeTimeout = saved }()

	// done never closes: the window thread is wedged.
	o := &windowsOverlay{done: make(chan struct{})}
	if err := o.Hide(); err == nil {
		t.Fatal("expected an error for a window that did not close")
	}
	if o.done != nil || o.hwnd != 0 {
		t.Errorf("state not reset: done=%v hwnd=%v", o.done, o.hwnd)
	}
	// A second Hide is a no-op and Show is no longer blocked by stale state.
	if err := o.Hide(); err != nil {
		t.Errorf("second Hide = %v", err)
	}
}
