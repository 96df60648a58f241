// Package msi reads product metadata out of Windows Installer package files.
//
// The package does not parse the installer database format itself. It drives
// the platform's Windows Installer query interface (msi.dll) through the
// Engine abstraction: an Engine opens a package file as a Database, and a
// Database answers single-property lookups against the Property table.
//
// The Reader batches lookups over a list of package files, isolating each
// file's failures so one broken or missing package never aborts its siblings.
package msi
