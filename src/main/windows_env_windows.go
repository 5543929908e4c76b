//go:build windows

package main

import (
	"log"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	processPerMonitorDPIAware = 2
	smCMonitors               = 80
)

var procSetProcessDPIAware = windows.NewLazySystemDLL("user32.dll").NewProc("SetProcessDPIAware")

// enableDPIAwareness makes window rectangles and screen pixels share one
// coordinate space. Without it a scaled monitor reports virtualized bounds.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Printf("DPI: per-monitor awareness enabled")
		} else {
			log.Printf("DPI: SetProcessDpiAwareness failed, HRESULT 0x%08x", uint32(ret))
		}
		return
	}

	log.Printf("DPI: Shcore.SetProcessDpiAwareness not available, trying fallback")
	if err := procSetProcessDPIAware.Find(); err != nil {
		log.Printf("DPI: SetProcessDPIAware not available, no DPI awareness set")
		return
	}
	if ret, _, _ := procSetProcessDPIAware.Call(); ret != 0 {
		log.Printf("DPI: system awareness enabled (fallback)")
	} else {
		log.Printf("DPI: SetProcessDPIAware failed")
	}
}

func logMonitorConfiguration() {
	log.Printf("MONITOR: Detected %d monitors", win.GetSystemMetrics(smCMonitors))
	log.Printf("MONITOR: Virtual screen - x:%d y:%d w:%d h:%d",
		win.GetSystemMetrics(win.SM_XVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_YVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN))
	log.Printf("MONITOR: Primary screen - w:%d h:%d",
		win.GetSystemMetrics(win.SM_CXSCREEN),
		win.GetSystemMetrics(win.SM_CYSCREEN))
}
