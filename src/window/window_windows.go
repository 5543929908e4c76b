//go:build windows

package window

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"win-dialog-shot/src/geometry"
)

var (
	dwmapi                    = windows.NewLazySystemDLL("dwmapi.dll")
	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")
	user32                    = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW        = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW  = user32.NewProc("GetWindowTextLengthW")
)

type nativeSystem struct{}

// NewSystem returns the user32/dwmapi backed implementation.
func NewSystem() Native { return nativeSystem{} }

func (nativeSystem) Foreground() uintptr { return uintptr(win.GetForegroundWindow()) }

func (nativeSystem) Parent(hwnd uintptr) uintptr { return uintptr(win.GetParent(win.HWND(hwnd))) }

func (nativeSystem) Owner(hwnd uintptr) uintptr {
	return uintptr(win.GetWindow(win.HWND(hwnd), win.GW_OWNER))
}

func (nativeSystem) Title(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	r, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf[:r])
}

func (nativeSystem) ExtendedFrameBounds(hwnd uintptr) (geometry.Rect, error) {
	if err := procDwmGetWindowAttribute.Find(); err != nil {
		return geometry.Rect{}, err
	}
	var r windows.Rect
	hr, _, _ := procDwmGetWindowAttribute.Call(
		hwnd,
		uintptr(windows.DWMWA_EXTENDED_FRAME_BOUNDS),
		uintptr(unsafe.Pointer(&r)),
		unsafe.Sizeof(r),
	)
	if hr != 0 {
		return geometry.Rect{}, fmt.Errorf("DwmGetWindowAttribute failed: HRESULT 0x%08x", uint32(hr))
	}
	return geometry.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}, nil
}

func (nativeSystem) WindowRect(hwnd uintptr) (geometry.Rect, error) {
	var r win.RECT
	if !win.GetWindowRect(win.HWND(hwnd), &r) {
		return geometry.Rect{}, fmt.Errorf("GetWindowRect failed: %v", windows.GetLastError())
	}
	return geometry.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}, nil
}
