//go:build windows

package tray

import (
	"syscall"

	"github.com/lxn/win"
)

// showMessageBox blocks the calling goroutine until the box is dismissed.
func showMessageBox(title, message string) {
	win.MessageBox(0, syscall.StringToUTF16Ptr(message), syscall.StringToUTF16Ptr(title),
		win.MB_OK|win.MB_ICONINFORMATION|win.MB_TOPMOST)
}
