package packager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// errNoSigningKey indicates the keyring holds no usable private key.
var errNoSigningKey = errors.New("no private key found in keyring")

// signArchive writes an armored detached OpenPGP signature next to the
// archive and returns the signature path.
func signArchive(archivePath, keyPath string) (string, error) {
	keyFile, err := os.Open(filepath.Clean(keyPath))
	if err != nil {
		return "", fmt.Errorf("open signing key: %w", err)
	}

	defer func() {
		_ = keyFile.Close()
	}()

	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		return "", fmt.Errorf("read signing key: %w", err)
	}

	signer, err := findSigner(keyring)
	if err != nil {
		return "", err
	}

	archive, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = archive.Close()
	}()

	signaturePath := archivePath + ".asc"

	signatureFile, err := os.Create(filepath.Clean(signaturePath))
	if err != nil {
		return "", fmt.Errorf("create signature file: %w", err)
	}

	if err = openpgp.ArmoredDetachSign(signatureFile, signer, archive, nil); err != nil {
		_ = signatureFile.Close()
		return "", fmt.Errorf("detach sign: %w", err)
	}

	if err = signatureFile.Close(); err != nil {
		return "", fmt.Errorf("close signature file: %w", err)
	}

	return signaturePath, nil
}

// findSigner picks the first entity carrying a usable private key.
func findSigner(keyring openpgp.EntityList) (*openpgp.Entity, error) {
	for _, entity := range keyring {
		if entity.PrivateKey != nil {
			return entity, nil
		}
	}

	return nil, errNoSigningKey
}
