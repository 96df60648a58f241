package packager

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/logger"
	"github.com/oshokin/deploy-kit/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to the deployment settings YAML file.
	ConfigPath string
	// OutputDir receives the manifest and the archive. Defaults to the
	// current working directory.
	OutputDir string
	// SigningKeyPath optionally points at an armored OpenPGP private key
	// used to produce a detached signature of the archive.
	SigningKeyPath string
}

const (
	// ManifestFilename stores the artifact checksums shipped with each archive.
	ManifestFilename = "deploy-kit-manifest.yaml"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755
)

// Manifest describes one distributable build of the deployment tools.
type Manifest struct {
	// VersionNumber is the semantic version of this build.
	VersionNumber string `yaml:"version"`
	// CreatedAt is the packaging timestamp.
	CreatedAt time.Time `yaml:"created_at"`
	// Files maps artifact filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// packager bundles build artifacts into a distributable archive.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type packager struct {
	cfg       *config.Config
	manifest  *Manifest
	outputDir string
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "deploy-package")

	cfg, err := config.Load(opts.ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "No settings file found, using default artifact list")

		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	pkg := &packager{
		cfg: cfg,
		manifest: &Manifest{
			VersionNumber: version.Short(),
			CreatedAt:     time.Now().UTC(),
			Files:         make(map[string]string, len(cfg.Artifacts)),
		},
		outputDir: outputDir,
	}

	archivePath, err := pkg.run(ctx)
	if err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	if opts.SigningKeyPath != "" {
		signaturePath, err := signArchive(archivePath, opts.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("sign archive: %w", err)
		}

		logger.InfoKV(ctx, "Archive signed", "signature", signaturePath)
	}

	logger.InfoKV(ctx, "Packager completed successfully", "archive", archivePath)

	return nil
}

// run fills the manifest, persists it and bundles everything into the archive.
func (p *packager) run(ctx context.Context) (string, error) {
	logger.Info(ctx, "Preparing distribution manifest")

	if err := p.fillManifest(); err != nil {
		return "", err
	}

	manifestPath := filepath.Join(p.outputDir, ManifestFilename)

	logger.InfoKV(ctx, "Saving distribution manifest", "path", manifestPath)

	if err := p.saveManifest(manifestPath); err != nil {
		return "", err
	}

	archivePath := filepath.Join(p.outputDir, p.archiveName())

	logger.InfoKV(ctx, "Bundling artifacts", "path", archivePath)

	if err := p.writeArchive(archivePath, manifestPath); err != nil {
		return "", err
	}

	p.printContents(ctx)

	return archivePath, nil
}

// archiveName returns the versioned archive filename.
func (p *packager) archiveName() string {
	return fmt.Sprintf("deploy-kit-%s.zip", p.manifest.VersionNumber)
}

// fillManifest checksums every configured artifact. A missing artifact is a
// hard failure: a distributable archive must be complete.
func (p *packager) fillManifest() error {
	for _, fileName := range p.cfg.Artifacts {
		if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}

		checksum, err := fileChecksum(fileName)
		if err != nil {
			return err
		}

		p.manifest.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	return nil
}

// saveManifest writes the manifest to the given path.
func (p *packager) saveManifest(path string) error {
	contents, err := yaml.Marshal(p.manifest)
	if err != nil {
		return err
	}

	return os.WriteFile(path, contents, DefaultFileMode)
}

// writeArchive bundles the artifacts and the manifest into a zip archive.
func (p *packager) writeArchive(archivePath, manifestPath string) error {
	archiveFile, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	archive := zip.NewWriter(archiveFile)

	for _, fileName := range p.cfg.Artifacts {
		if err = addFileToArchive(archive, fileName); err != nil {
			_ = archiveFile.Close()
			return err
		}
	}

	if err = addFileToArchive(archive, manifestPath); err != nil {
		_ = archiveFile.Close()
		return err
	}

	if err = archive.Close(); err != nil {
		_ = archiveFile.Close()
		return fmt.Errorf("close archive writer: %w", err)
	}

	return archiveFile.Close()
}

// addFileToArchive stores one file in the archive under its base name.
func addFileToArchive(archive *zip.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archive header for %s: %w", path, err)
	}

	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	entry, err := archive.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry for %s: %w", path, err)
	}

	if _, err = io.Copy(entry, file); err != nil {
		return fmt.Errorf("write archive entry for %s: %w", path, err)
	}

	return nil
}

// printContents logs the bundled files for operator visibility.
func (p *packager) printContents(ctx context.Context) {
	files := make([]string, 0, len(p.manifest.Files)+1)
	for fileName := range p.manifest.Files {
		files = append(files, fileName)
	}

	files = append(files, ManifestFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("The archive contains:\n")
	builder.WriteString(strings.Join(files, ",\n"))

	logger.Info(ctx, builder.String())
}
