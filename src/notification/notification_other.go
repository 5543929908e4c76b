//go:build !windows

package notification

import "log"

// Show logs text where no native toast is available.
func Show(text string) {
	log.Printf("[NOTE] %s", text)
}
