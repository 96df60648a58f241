package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/msi"
)

// stubEngine serves a fixed property table and records whether it was closed.
type stubEngine struct {
	properties map[string]string
	closed     bool
}

func (e *stubEngine) Open(string) (msi.Database, error) {
	return &stubDatabase{properties: e.properties}, nil
}

func (e *stubEngine) Close() error {
	e.closed = true
	return nil
}

type stubDatabase struct {
	properties map[string]string
}

func (d *stubDatabase) Property(name string) (string, error) {
	value, ok := d.properties[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, msi.ErrPropertyNotFound)
	}

	return value, nil
}

func (d *stubDatabase) Close() error {
	return nil
}

// TestCommandArgs verifies the fixed installer options, the certificate
// directive included, are all present on a default-settings invocation and
// that the target directory is forwarded as an installer property.
func TestCommandArgs(t *testing.T) {
	t.Parallel()

	args := commandArgs(config.Default(), `C:\drop\service.msi`, `C:\Program Files\Service`)

	require.Equal(t, []string{
		"/i", `C:\drop\service.msi`,
		"/qn",
		"/l*v", config.DefaultInstallerLogFilename,
		"SERVICEPORT=8443",
		"GENERATECERT=1",
		`INSTALLDIR=C:\Program Files\Service`,
	}, args)
}

// TestCommandArgsCertificateDisabled ensures the certificate directive is
// omitted only when settings explicitly disable it.
func TestCommandArgsCertificateDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.DisableCertificateGeneration = true
	cfg.ServicePort = 9001
	cfg.InstallerLogFile = "install.log"

	args := commandArgs(cfg, "service.msi", "")

	require.Equal(t, []string{
		"/i", "service.msi",
		"/qn",
		"/l*v", "install.log",
		"SERVICEPORT=9001",
	}, args)
}

// TestLogPackageMetadataKeepsEngineOpen ensures the pre-install lookup does
// not close an engine it did not create.
func TestLogPackageMetadataKeepsEngineOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "service.msi")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o600))

	engine := &stubEngine{properties: map[string]string{
		msi.PropertyProductName:    "Example Service",
		msi.PropertyProductVersion: "1.9.492.0",
	}}

	logPackageMetadata(context.Background(), engine, path)

	require.False(t, engine.closed)
}

// TestExitErrorMessage checks that the failure message surfaces the code.
func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ExitError{Code: 1603}
	require.Contains(t, err.Error(), "1603")
}
