// Package config defines deployment settings used by the deploy-kit binaries
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the fixed installer options (service port, verbose
// log filename, certificate generation) and the artifact list for packaging.
package config
