// Package installer invokes the platform installer subsystem for a single
// package file with the fixed deployment options (silent mode, verbose log,
// service port, self-signed certificate) and relays the subprocess exit code
// verbatim through ExitError.
package installer
