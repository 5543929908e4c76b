//go:build !windows

package window

import (
	"errors"

	"win-dialog-shot/src/geometry"
)

var errUnsupported = errors.New("window queries are only implemented on Windows")

type unsupportedSystem struct{}

// NewSystem returns a backend that never reports a foreground window.
func NewSystem() Native { return unsupportedSystem{} }

func (unsupportedSystem) Foreground() uintptr    { return 0 }
func (unsupportedSystem) Parent(uintptr) uintptr { return 0 }
func (unsupportedSystem) Owner(uintptr) uintptr  { return 0 }
func (unsupportedSystem) Title(uintptr) string   { return "" }

func (unsupportedSystem) ExtendedFrameBounds(uintptr) (geometry.Rect, error) {
	return geometry.Rect{}, errUnsupported
}

func (unsupportedSystem) WindowRect(uintptr) (geometry.Rect, error) {
	return geometry.Rect{}, errUnsupported
}
