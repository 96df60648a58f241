//go:build !windows

package msi

// NewEngine reports that the Windows Installer engine is unavailable.
// Package metadata queries depend on msi.dll and only work on Windows.
func NewEngine() (Engine, error) {
	return nil, ErrUnsupportedPlatform
}
