package msi

import (
	"errors"
	"fmt"
)

// Standard property names defined by the installer package format.
// Every valid package carries all five.
const (
	PropertyProductCode     = "ProductCode"
	PropertyManufacturer    = "Manufacturer"
	PropertyProductName     = "ProductName"
	PropertyProductVersion  = "ProductVersion"
	PropertyProductLanguage = "ProductLanguage"
)

var (
	// ErrUnsupportedPlatform indicates the Windows Installer engine
	// is not available on the current platform.
	ErrUnsupportedPlatform = errors.New("installer database queries require Windows Installer")

	// ErrPropertyNotFound indicates the Property table has no row
	// for the requested property name.
	ErrPropertyNotFound = errors.New("property not found in package")

	// errUnknownProperty is returned when a requested name is outside
	// the standard property set.
	errUnknownProperty = errors.New("unknown property name")
)

// Engine opens installer package files for querying.
// The platform implementation drives msi.dll; tests substitute fakes.
type Engine interface {
	// Open starts a read-only query session against the package at path.
	Open(path string) (Database, error)
	// Close releases the engine once all packages are processed.
	Close() error
}

// Database is a query session against a single opened package file.
type Database interface {
	// Property returns the string value of the named property,
	// or an error wrapping ErrPropertyNotFound when no row exists.
	Property(name string) (string, error)
	// Close releases the session handles.
	Close() error
}

// StandardProperties returns the five standard property names in their
// canonical order.
func StandardProperties() []string {
	return []string{
		PropertyProductCode,
		PropertyManufacturer,
		PropertyProductName,
		PropertyProductVersion,
		PropertyProductLanguage,
	}
}

// ValidateProperties checks that every requested name belongs to the
// standard property set. An empty request is replaced with the full set.
func ValidateProperties(names []string) ([]string, error) {
	if len(names) == 0 {
		return StandardProperties(), nil
	}

	allowed := make(map[string]struct{}, len(StandardProperties()))
	for _, name := range StandardProperties() {
		allowed[name] = struct{}{}
	}

	for _, name := range names {
		if _, ok := allowed[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownProperty, name)
		}
	}

	return names, nil
}
