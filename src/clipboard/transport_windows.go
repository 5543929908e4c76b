//go:build windows

package clipboard

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	openRetries    = 5
	ownerClassName = "WinDialogShotClipboardOwner"
)

// hwndMessage is HWND_MESSAGE, the parent of message-only windows.
var hwndMessage = ^win.HWND(2)

var (
	ownerOnce sync.Once
	ownerHWND win.HWND
	ownerErr  error
)

type win32Transport struct{}

// NewDefault returns the native CF_DIB transport.
func NewDefault() Transport { return win32Transport{} }

// Open retries briefly because another process may be holding the clipboard.
// The clipboard is opened on behalf of a message-only window so that
// EmptyClipboard gives it a real owner.
func (win32Transport) Open() error {
	owner, err := ownerWindow()
	if err != nil {
		log.Printf("clipboard: no owner window, opening without one: %v", err)
	}
	for i := 0; i < openRetries; i++ {
		if win.OpenClipboard(owner) {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("OpenClipboard: %v", windows.GetLastError())
}

// ownerWindow creates the clipboard owner once. It lives on its own locked
// thread with a message loop so clipboard notifications sent to it by other
// processes are always answered.
func ownerWindow() (win.HWND, error) {
	ownerOnce.Do(func() {
		ready := make(chan error, 1)
		go func() {
			runtime.LockOSThread()
			wc := win.WNDCLASSEX{
				CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
				LpfnWndProc:   syscall.NewCallback(ownerWndProc),
				HInstance:     win.GetModuleHandle(nil),
				LpszClassName: syscall.StringToUTF16Ptr(ownerClassName),
			}
			if win.RegisterClassEx(&wc) == 0 {
				ready <- fmt.Errorf("RegisterClassEx: %v", windows.GetLastError())
				return
			}
			hwnd := win.CreateWindowEx(0, syscall.StringToUTF16Ptr(ownerClassName), nil, 0,
				0, 0, 0, 0, hwndMessage, 0, win.GetModuleHandle(nil), nil)
			if hwnd == 0 {
				ready <- fmt.Errorf("CreateWindowEx: %v", windows.GetLastError())
				return
			}
			ownerHWND = hwnd
			ready <- nil

			var msg win.MSG
			for win.GetMessage(&msg, 0, 0, 0) > 0 {
				win.TranslateMessage(&msg)
				win.DispatchMessage(&msg)
			}
		}()
		ownerErr = <-ready
	})
	return ownerHWND, ownerErr
}

func ownerWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (win32Transport) Empty() error {
	if !win.EmptyClipboard() {
		return fmt.Errorf("EmptyClipboard: %v", windows.GetLastError())
	}
	return nil
}

// SetDIB copies dib into a movable global block. Ownership passes to the system
// only when SetClipboardData succeeds; otherwise the block is freed here.
func (win32Transport) SetDIB(dib []byte) error {
	hMem := win.GlobalAlloc(win.GMEM_MOVEABLE, uintptr(len(dib)))
	if hMem == 0 {
		return fmt.Errorf("GlobalAlloc(%d): %v", len(dib), windows.GetLastError())
	}
	p := win.GlobalLock(hMem)
	if p == nil {
		win.GlobalFree(hMem)
		return fmt.Errorf("GlobalLock: %v", windows.GetLastError())
	}
	copy(unsafe.Slice((*byte)(p), len(dib)), dib)
	win.GlobalUnlock(hMem)

	if win.SetClipboardData(win.CF_DIB, win.HANDLE(hMem)) == 0 {
		err := windows.GetLastError()
		win.GlobalFree(hMem)
		return fmt.Errorf("SetClipboardData: %v", err)
	}
	return nil
}

func (win32Transport) Close() error {
	if !win.CloseClipboard() {
		return fmt.Errorf("CloseClipboard: %v", windows.GetLastError())
	}
	return nil
}
