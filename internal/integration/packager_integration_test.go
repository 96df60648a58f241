package integration

import (
	"archive/zip"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/service/packager"
)

// TestPackageRoundtrip bundles artifacts, then re-reads the archive and
// checks every entry against the manifest checksums.
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

func TestPackageRoundtrip(t *testing.T) {
	chdir(t, t.TempDir())

	artifacts := map[string][]byte{
		"deploy-install": []byte("installer build"),
		"deploy-inspect": []byte("inspector build"),
		"deploy-package": []byte("packager build"),
	}

	names := make([]string, 0, len(artifacts))
	for name, contents := range artifacts {
		require.NoError(t, os.WriteFile(name, contents, 0o755))

		names = append(names, name)
	}

	require.NoError(t, config.Save(config.DefaultConfigFilename, &config.Config{Artifacts: names}))

	// Run packager with timeout context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{ConfigPath: config.DefaultConfigFilename})
	require.NoError(t, err)

	// Load the manifest written alongside the archive.
	contents, err := os.ReadFile(packager.ManifestFilename)
	require.NoError(t, err)

	var manifest packager.Manifest
	require.NoError(t, yaml.Unmarshal(contents, &manifest))
	require.Len(t, manifest.Files, len(artifacts))

	// Every archived artifact must match its manifest checksum.
	archive, err := zip.OpenReader("deploy-kit-" + manifest.VersionNumber + ".zip")
	require.NoError(t, err)

	defer func() {
		_ = archive.Close()
	}()

	verified := 0

	for _, file := range archive.File {
		expected, ok := manifest.Files[file.Name]
		if !ok {
			require.Equal(t, packager.ManifestFilename, file.Name)
			continue
		}

		reader, err := file.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		require.NoError(t, reader.Close())

		sum := sha512.Sum512(data)
		require.Equal(t, expected, base64.StdEncoding.EncodeToString(sum[:]))

		verified++
	}

	require.Equal(t, len(artifacts), verified)
}
