//go:build !windows

package clipboard

// NewDefault returns the portable transport; CF_DIB only exists on Windows.
func NewDefault() Transport { return NewPortable() }
