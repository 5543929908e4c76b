//go:build !windows

package tray

import "log"

func showMessageBox(title, message string) {
	log.Printf("%s: %s", title, message)
}
