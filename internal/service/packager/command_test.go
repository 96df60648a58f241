package packager

import (
	"archive/zip"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/config"
)

// chdir switches the working directory for the test and restores it on
// cleanup. It mirrors t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

// writeSettings persists a settings file listing the given artifacts.
func writeSettings(t *testing.T, artifacts []string) string {
	t.Helper()

	path := config.DefaultConfigFilename
	require.NoError(t, config.Save(path, &config.Config{Artifacts: artifacts}))

	return path
}

// TestRunBundlesArtifacts verifies manifest checksums and archive contents.
func TestRunBundlesArtifacts(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, os.WriteFile("deploy-install", []byte("installer binary"), 0o755))
	require.NoError(t, os.WriteFile("deploy-inspect", []byte("inspector binary"), 0o755))

	configPath := writeSettings(t, []string{"deploy-install", "deploy-inspect"})

	err := Run(context.Background(), &Options{ConfigPath: configPath})
	require.NoError(t, err)

	// Manifest carries a checksum per artifact.
	contents, err := os.ReadFile(ManifestFilename)
	require.NoError(t, err)

	var manifest Manifest
	require.NoError(t, yaml.Unmarshal(contents, &manifest))
	require.NotEmpty(t, manifest.VersionNumber)
	require.Len(t, manifest.Files, 2)

	sum := sha512.Sum512([]byte("installer binary"))
	require.Equal(t, base64.StdEncoding.EncodeToString(sum[:]), manifest.Files["deploy-install"])

	// Archive holds both artifacts plus the manifest.
	archive, err := zip.OpenReader("deploy-kit-" + manifest.VersionNumber + ".zip")
	require.NoError(t, err)

	defer func() {
		_ = archive.Close()
	}()

	names := make([]string, 0, len(archive.File))
	for _, file := range archive.File {
		names = append(names, file.Name)
	}

	require.ElementsMatch(t, []string{"deploy-install", "deploy-inspect", ManifestFilename}, names)
}

// TestRunMissingArtifact ensures an incomplete artifact set fails packaging.
func TestRunMissingArtifact(t *testing.T) {
	chdir(t, t.TempDir())

	configPath := writeSettings(t, []string{"deploy-install"})

	err := Run(context.Background(), &Options{ConfigPath: configPath})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunSignsArchive produces a detached signature and verifies it against
// the signing key.
func TestRunSignsArchive(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, os.WriteFile("deploy-install", []byte("installer binary"), 0o755))
	configPath := writeSettings(t, []string{"deploy-install"})

	entity, err := openpgp.NewEntity("release", "", "release@example.com", nil)
	require.NoError(t, err)

	keyPath := filepath.Join(".", "release-key.asc")
	keyFile, err := os.Create(keyPath)
	require.NoError(t, err)

	armorWriter, err := armor.Encode(keyFile, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(armorWriter, nil))
	require.NoError(t, armorWriter.Close())
	require.NoError(t, keyFile.Close())

	err = Run(context.Background(), &Options{
		ConfigPath:     configPath,
		SigningKeyPath: keyPath,
	})
	require.NoError(t, err)

	archivePath := "deploy-kit-" + versionFromManifest(t) + ".zip"

	archive, err := os.Open(archivePath)
	require.NoError(t, err)

	defer func() {
		_ = archive.Close()
	}()

	signature, err := os.Open(archivePath + ".asc")
	require.NoError(t, err)

	defer func() {
		_ = signature.Close()
	}()

	_, err = openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, archive, signature, nil)
	require.NoError(t, err)
}

// versionFromManifest reads the packaged version out of the manifest file.
func versionFromManifest(t *testing.T) string {
	t.Helper()

	contents, err := os.ReadFile(ManifestFilename)
	require.NoError(t, err)

	var manifest Manifest
	require.NoError(t, yaml.Unmarshal(contents, &manifest))

	return manifest.VersionNumber
}
