package packager

import (
	"crypto"
	"errors"
	"io"
	"os"
	"path/filepath"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

// DefaultChecksumFunction is used to calculate artifact hashes.
const DefaultChecksumFunction crypto.Hash = crypto.SHA512

// errHashUnavailable indicates the checksum function is not linked in.
var errHashUnavailable = errors.New("hash function unavailable")

// fileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func fileChecksum(path string) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, errHashUnavailable
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hash := DefaultChecksumFunction.New()
	if _, err = io.Copy(hash, file); err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}
