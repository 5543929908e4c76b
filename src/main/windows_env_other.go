//go:build !windows

package main

import "log"

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	log.Printf("MONITOR: configuration only reported on Windows")
}
