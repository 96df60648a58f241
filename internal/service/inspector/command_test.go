package inspector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/msi"
)

// stubEngine serves canned property tables keyed by file basename.
type stubEngine struct {
	packages map[string]map[string]string
	closed   bool
}

func (e *stubEngine) Open(path string) (msi.Database, error) {
	properties, ok := e.packages[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("open installer database %s: corrupt package", path)
	}

	return &stubDatabase{properties: properties}, nil
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

// writePackage creates a placeholder package file and registers its properties.
func writePackage(t *testing.T, engine *stubEngine, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o600))

	engine.packages[name] = map[string]string{
		msi.PropertyProductCode:     "{11111111-2222-4333-8444-555555555555}",
		msi.PropertyManufacturer:    "Example Corp",
		msi.PropertyProductName:     "Example Service",
		msi.PropertyProductVersion:  "1.9.492.0",
		msi.PropertyProductLanguage: "1033",
	}

	return path
}

// TestRunEmitsOrderedRecords verifies one YAML document per file with the
// path first and the standard properties following.
func TestRunEmitsOrderedRecords(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}
	path := writePackage(t, engine, t.TempDir(), "service.msi")

	var output bytes.Buffer

	err := Run(context.Background(), &Options{
		Paths:  []string{path},
		Engine: engine,
		Output: &output,
	})
	require.NoError(t, err)

	// A caller-supplied engine stays open for the caller to reuse.
	require.False(t, engine.closed)

	var record map[string]string
	require.NoError(t, yaml.Unmarshal(output.Bytes(), &record))
	require.Equal(t, path, record["path"])
	require.Equal(t, "1.9.492.0", record[msi.PropertyProductVersion])
	require.Len(t, record, 6)

	// The path key leads the document and the language carries its locale tag.
	require.True(t, strings.HasPrefix(strings.TrimSpace(output.String()), "path:"))
	require.Contains(t, output.String(), "# en-US")
}

// TestRunPropertySubset ensures only the requested fields populate the output.
func TestRunPropertySubset(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}
	path := writePackage(t, engine, t.TempDir(), "service.msi")

	var output bytes.Buffer

	err := Run(context.Background(), &Options{
		Paths:      []string{path},
		Properties: []string{msi.PropertyProductName},
		Engine:     engine,
		Output:     &output,
	})
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, yaml.Unmarshal(output.Bytes(), &record))
	require.Len(t, record, 2)
	require.Equal(t, "Example Service", record[msi.PropertyProductName])
}

// TestRunBatchIsolation ensures a missing file does not abort valid siblings.
func TestRunBatchIsolation(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}
	dir := t.TempDir()
	good := writePackage(t, engine, dir, "good.msi")
	missing := filepath.Join(dir, "missing.msi")

	var output bytes.Buffer

	err := Run(context.Background(), &Options{
		Paths:  []string{missing, good},
		Engine: engine,
		Output: &output,
	})
	require.NoError(t, err)
	require.Contains(t, output.String(), good)
}

// TestRunAllFilesFailed ensures a fully failed batch is reported as an error.
func TestRunAllFilesFailed(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}

	var output bytes.Buffer

	err := Run(context.Background(), &Options{
		Paths:  []string{filepath.Join(t.TempDir(), "missing.msi")},
		Engine: engine,
		Output: &output,
	})
	require.ErrorIs(t, err, errAllFilesFailed)
	require.Empty(t, output.String())
}

// TestRunUnknownProperty ensures validation fails before any file is read.
func TestRunUnknownProperty(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}

	err := Run(context.Background(), &Options{
		Paths:      []string{"service.msi"},
		Properties: []string{"UpgradeCode"},
		Engine:     engine,
	})
	require.Error(t, err)
	require.False(t, engine.closed)
}

// TestRunPipedPaths verifies paths can be streamed in from an upstream producer.
func TestRunPipedPaths(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}
	dir := t.TempDir()
	first := writePackage(t, engine, dir, "first.msi")
	second := writePackage(t, engine, dir, "second.msi")

	var output bytes.Buffer

	err := Run(context.Background(), &Options{
		Engine: engine,
		Output: &output,
		Input:  strings.NewReader(first + "\n\n" + second + "\n"),
	})
	require.NoError(t, err)
	require.Contains(t, output.String(), first)
	require.Contains(t, output.String(), second)
}

// TestRunNoInput ensures an empty batch is rejected.
func TestRunNoInput(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{packages: map[string]map[string]string{}}

	err := Run(context.Background(), &Options{
		Engine: engine,
		Input:  strings.NewReader(""),
	})
	require.ErrorIs(t, err, errNoInputFiles)
}
