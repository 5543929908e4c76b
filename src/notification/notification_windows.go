//go:build windows

package notification

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	className  = "WinDialogShotToast"
	toastW     = 400
	toastH     = 100
	margin     = 20
	closeAfter = 3000 // ms
	timerClose = 1

	dtWordBreak = 0x10
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procDrawText  = user32.NewProc("DrawTextW")
	procSetTimer  = user32.NewProc("SetTimer")
	procKillTimer = user32.NewProc("KillTimer")
)

var (
	queueOnce sync.Once
	queue     chan string

	// Read by wndProc on the toast thread only.
	toastText string
)

// Show queues text for the toast thread. A full queue drops the request.
func Show(text string) {
	queueOnce.Do(func() {
		queue = make(chan string, 4)
		go toastThread()
	})
	select {
	case queue <- text:
	default:
		log.Printf("notification: queue full, dropping %q", text)
	}
}

// toastThread shows one toast at a time for the life of the process.
func toastThread() {
	runtime.LockOSThread()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notification: toast thread panic: %v", r)
		}
	}()

	if err := registerClass(); err != nil {
		log.Printf("notification: %v", err)
		for text := range queue {
			log.Printf("[NOTE] %s", text)
		}
		return
	}
	for text := range queue {
		if err := showToast(text); err != nil {
			log.Printf("notification: %v", err)
		}
	}
}

func registerClass() error {
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(wndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		HbrBackground: win.HBRUSH(win.COLOR_WINDOW + 1),
		LpszClassName: syscall.StringToUTF16Ptr(className),
	}
	if win.RegisterClassEx(&wc) == 0 {
		return fmt.Errorf("RegisterClassEx: %v", windows.GetLastError())
	}
	return nil
}

// showToast runs a message loop until the toast is destroyed and posts WM_QUIT.
func showToast(text string) error {
	toastText = text
	x := int32(margin)
	y := win.GetSystemMetrics(win.SM_CYSCREEN) - toastH - margin

	hwnd := win.CreateWindowEx(
		win.WS_EX_NOACTIVATE|win.WS_EX_TOOLWINDOW|win.WS_EX_TOPMOST|win.WS_EX_CLIENTEDGE,
		syscall.StringToUTF16Ptr(className),
		syscall.StringToUTF16Ptr("win-dialog-shot"),
		win.WS_POPUP,
		x, y, toastW, toastH,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		return fmt.Errorf("CreateWindowEx: %v", windows.GetLastError())
	}
	win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	win.UpdateWindow(hwnd)
	procSetTimer.Call(uintptr(hwnd), timerClose, closeAfter, 0)

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	return nil
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		rect := win.RECT{Left: 10, Top: 10, Right: toastW - 10, Bottom: toastH - 10}
		p := syscall.StringToUTF16Ptr(toastText)
		procDrawText.Call(uintptr(hdc), uintptr(unsafe.Pointer(p)), ^uintptr(0),
			uintptr(unsafe.Pointer(&rect)), dtWordBreak)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_TIMER:
		if wParam == timerClose {
			win.DestroyWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONDOWN, win.WM_RBUTTONDOWN:
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		procKillTimer.Call(uintptr(hwnd), timerClose)
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
