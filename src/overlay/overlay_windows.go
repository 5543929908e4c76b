//go:build windows

package overlay

import (
	"context"
	"errors"
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
	className    = "WinDialogShotOverlay"
	paintTimeout = 500 * time.Millisecond
)

var closeTimeout = 2 * time.Second

var (
	dwmapi       = windows.NewLazySystemDLL("dwmapi.dll")
	procDwmFlush = dwmapi.NewProc("DwmFlush")
	user32       = windows.NewLazySystemDLL("user32.dll")
	procFillRect = user32.NewProc("FillRect")

	// ShowWindowAsync only posts to the owning thread, so it cannot hang on a stuck loop.
	procShowWindowAsync = user32.NewProc("ShowWindowAsync")
)

var (
	registerOnce sync.Once
	registerErr  error

	// State for the single live overlay window, read by wndProc on the UI thread.
	activeMu      sync.Mutex
	activeBrush   win.HBRUSH
	activePainted chan struct{}
)

type windowsOverlay struct {
	opts Options

	mu   sync.Mutex
	hwnd win.HWND
	done chan struct{}
}

// New returns the Windows backdrop overlay.
func New(opts Options) Overlay {
	return &windowsOverlay{opts: opts}
}

func (o *windowsOverlay) Show(ctx context.Context, below uintptr) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done != nil {
		return errors.New("overlay already shown")
	}

	ready := make(chan error, 1)
	painted := make(chan struct{}, 1)
	done := make(chan struct{})
	go o.run(win.HWND(below), ready, painted, done)

	if err := <-ready; err != nil {
		<-done
		return err
	}
	o.done = done
	log.Printf("[INFO] Fullscreen overlay shown")

	select {
	case <-painted:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(paintTimeout):
		log.Printf("overlay: no WM_PAINT within %v", paintTimeout)
	}

	if err := dwmFlush(); err != nil {
		log.Printf("overlay: compositor barrier unavailable (%v), waiting %v", err, o.opts.Delay)
		return sleepCtx(ctx, o.opts.Delay)
	}
	return nil
}

func (o *windowsOverlay) Hide() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		return nil
	}

	hwnd := o.hwnd
	win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	select {
	case <-o.done:
		o.done, o.hwnd = nil, 0
		log.Printf("[INFO] Overlay removed")
		return nil
	case <-time.After(closeTimeout):
	}

	// The window thread is not pumping messages. Hide the window so it cannot
	// cover the desktop and forget it; its thread closes it if it ever recovers.
	procShowWindowAsync.Call(uintptr(hwnd), uintptr(win.SW_HIDE))
	o.done, o.hwnd = nil, 0
	return fmt.Errorf("overlay window %v did not close within %v, abandoned", hwnd, closeTimeout)
}

// run owns the overlay window for its whole life. The OS thread is never
// unlocked, so it is discarded together with any window state when run returns.
func (o *windowsOverlay) run(below win.HWND, ready chan<- error, painted chan struct{}, done chan struct{}) {
	defer close(done)
	runtime.LockOSThread()

	if err := registerClass(); err != nil {
		ready <- err
		return
	}

	c := o.opts.Color
	brush := win.CreateBrushIndirect(&win.LOGBRUSH{LbStyle: win.BS_SOLID, LbColor: win.RGB(c.R, c.G, c.B)})
	if brush == 0 {
		ready <- errors.New("CreateBrushIndirect failed")
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(brush))

	activeMu.Lock()
	activeBrush, activePainted = brush, painted
	activeMu.Unlock()
	defer func() {
		activeMu.Lock()
		// An abandoned window may exit after a newer one took over.
		if activePainted == painted {
			activeBrush, activePainted = 0, nil
		}
		activeMu.Unlock()
	}()

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOOLWINDOW|win.WS_EX_NOACTIVATE,
		syscall.StringToUTF16Ptr(className),
		syscall.StringToUTF16Ptr("win-dialog-shot overlay"),
		win.WS_POPUP,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("CreateWindowEx: %v", windows.GetLastError())
		return
	}
	o.hwnd = hwnd

	// Inserting after below puts the backdrop directly under the captured windows.
	if !win.SetWindowPos(hwnd, below, vx, vy, vw, vh, win.SWP_NOACTIVATE|win.SWP_SHOWWINDOW) {
		log.Printf("overlay: SetWindowPos failed: %v", windows.GetLastError())
		win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	}
	win.UpdateWindow(hwnd)
	log.Printf("overlay: window %v at (%d,%d) %dx%d below %v", hwnd, vx, vy, vw, vh, below)
	ready <- nil

	var msg win.MSG
	for {
		r := win.GetMessage(&msg, 0, 0, 0)
		if r == 0 {
			return
		}
		if r == -1 {
			log.Printf("overlay: GetMessage error: %v", windows.GetLastError())
			win.DestroyWindow(hwnd)
			return
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func registerClass() error {
	registerOnce.Do(func() {
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			LpfnWndProc:   syscall.NewCallback(wndProc),
			HInstance:     win.GetModuleHandle(nil),
			HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
			LpszClassName: syscall.StringToUTF16Ptr(className),
		}
		if win.RegisterClassEx(&wc) == 0 {
			registerErr = fmt.Errorf("RegisterClassEx: %v", windows.GetLastError())
		}
	})
	return registerErr
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_ERASEBKGND:
		return 1

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		activeMu.Lock()
		brush, painted := activeBrush, activePainted
		activeMu.Unlock()
		if brush != 0 {
			procFillRect.Call(uintptr(hdc), uintptr(unsafe.Pointer(&ps.RcPaint)), uintptr(brush))
		}
		win.EndPaint(hwnd, &ps)
		if painted != nil {
			select {
			case painted <- struct{}{}:
			default:
			}
		}
		return 0

	case win.WM_NCHITTEST:
		// Clicks fall through to whatever is underneath.
		return ^uintptr(0) // HTTRANSPARENT

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// dwmFlush blocks until the desktop compositor has presented the next frame.
func dwmFlush() error {
	if err := procDwmFlush.Find(); err != nil {
		return err
	}
	hr, _, _ := procDwmFlush.Call()
	if hr != 0 {
		return fmt.Errorf("DwmFlush failed: HRESULT 0x%08x", uint32(hr))
	}
	return nil
}
