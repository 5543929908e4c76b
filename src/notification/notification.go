// Package notification shows short-lived, non-activating toasts for capture
// failures in resident mode.
package notification

import "fmt"

const maxTextLen = 200

// FailureText formats a capture failure for display.
func FailureText(kind string, err error) string {
	return truncate(fmt.Sprintf("Capture failed (%s)\n%v", kind, err), maxTextLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
