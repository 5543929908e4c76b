//go:build !windows

package overlay

import "log"

// New returns Noop: the backdrop needs a Win32 desktop.
func New(opts Options) Overlay {
	log.Printf("overlay: not supported on this platform, continuing without it")
	return Noop{}
}
