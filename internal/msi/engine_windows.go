//go:build windows

package msi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

//nolint:gochecknoglobals // Lazy DLL bindings are resolved once per process.
var (
	modMsi = windows.NewLazySystemDLL("msi.dll")

	procMsiOpenDatabaseW     = modMsi.NewProc("MsiOpenDatabaseW")
	procMsiDatabaseOpenViewW = modMsi.NewProc("MsiDatabaseOpenViewW")
	procMsiViewExecute       = modMsi.NewProc("MsiViewExecute")
	procMsiViewFetch         = modMsi.NewProc("MsiViewFetch")
	procMsiViewClose         = modMsi.NewProc("MsiViewClose")
	procMsiRecordGetStringW  = modMsi.NewProc("MsiRecordGetStringW")
	procMsiCloseHandle       = modMsi.NewProc("MsiCloseHandle")
)

const (
	// msidbOpenReadOnly is the szPersist value for read-only database access.
	msidbOpenReadOnly = 0

	// Windows Installer API status codes.
	statusSuccess     = 0
	statusMoreData    = 234
	statusNoMoreItems = 259
)

// windowsEngine opens installer databases through msi.dll.
type windowsEngine struct{}

// NewEngine returns the platform Windows Installer engine.
func NewEngine() (Engine, error) {
	if err := modMsi.Load(); err != nil {
		return nil, fmt.Errorf("load msi.dll: %w", err)
	}

	return &windowsEngine{}, nil
}

// Open starts a read-only query session against the package at path.
func (e *windowsEngine) Open(path string) (Database, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("encode path: %w", err)
	}

	var handle uintptr

	status, _, _ := procMsiOpenDatabaseW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		msidbOpenReadOnly,
		uintptr(unsafe.Pointer(&handle)),
	)
	if status != statusSuccess {
		return nil, fmt.Errorf("open installer database: %w", windows.Errno(status))
	}

	return &windowsDatabase{handle: handle}, nil
}

// Close releases the engine. Database-level access through msi.dll holds no
// top-level handle, so there is nothing to free here.
func (e *windowsEngine) Close() error {
	return nil
}

// windowsDatabase is an open read-only installer database handle.
type windowsDatabase struct {
	handle uintptr
}

// Property issues a single-row select against the Property table and returns
// the first result's string value.
func (d *windowsDatabase) Property(name string) (string, error) {
	// Property names are validated against the fixed standard set before
	// they reach this query.
	query := fmt.Sprintf("SELECT `Value` FROM `Property` WHERE `Property` = '%s'", name)

	queryPtr, err := windows.UTF16PtrFromString(query)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}

	var view uintptr

	status, _, _ := procMsiDatabaseOpenViewW.Call(
		d.handle,
		uintptr(unsafe.Pointer(queryPtr)),
		uintptr(unsafe.Pointer(&view)),
	)
	if status != statusSuccess {
		return "", fmt.Errorf("open view for %s: %w", name, windows.Errno(status))
	}

	defer func() {
		_, _, _ = procMsiViewClose.Call(view)
		_, _, _ = procMsiCloseHandle.Call(view)
	}()

	if status, _, _ = procMsiViewExecute.Call(view, 0); status != statusSuccess {
		return "", fmt.Errorf("execute view for %s: %w", name, windows.Errno(status))
	}

	var record uintptr

	status, _, _ = procMsiViewFetch.Call(view, uintptr(unsafe.Pointer(&record)))
	if status == statusNoMoreItems {
		return "", fmt.Errorf("%s: %w", name, ErrPropertyNotFound)
	}

	if status != statusSuccess {
		return "", fmt.Errorf("fetch %s: %w", name, windows.Errno(status))
	}

	defer func() {
		_, _, _ = procMsiCloseHandle.Call(record)
	}()

	return recordString(record, 1)
}

// Close releases the database handle.
func (d *windowsDatabase) Close() error {
	status, _, _ := procMsiCloseHandle.Call(d.handle)
	if status != statusSuccess {
		return fmt.Errorf("close installer database: %w", windows.Errno(status))
	}

	return nil
}

// recordString reads a string field from an installer record handle,
// sizing the buffer with a probe call first.
func recordString(record uintptr, field uint32) (string, error) {
	var size uint32

	probe := uint16(0)

	status, _, _ := procMsiRecordGetStringW.Call(
		record,
		uintptr(field),
		uintptr(unsafe.Pointer(&probe)),
		uintptr(unsafe.Pointer(&size)),
	)
	if status != statusSuccess && status != statusMoreData {
		return "", fmt.Errorf("size record field: %w", windows.Errno(status))
	}

	// Room for the terminator reported separately by the probe call.
	size++
	buffer := make([]uint16, size)

	status, _, _ = procMsiRecordGetStringW.Call(
		record,
		uintptr(field),
		uintptr(unsafe.Pointer(&buffer[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if status != statusSuccess {
		return "", fmt.Errorf("read record field: %w", windows.Errno(status))
	}

	return windows.UTF16ToString(buffer[:size]), nil
}
