package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds deployment parameters shared by the deploy-kit binaries.
type Config struct {
	// ServicePort is the transport port handed to the installer as a property.
	ServicePort int `yaml:"service_port"`
	// InstallerLogFile is the verbose installer log filename, written to the
	// current working directory by the installer subsystem.
	InstallerLogFile string `yaml:"installer_log_file"`
	// DisableCertificateGeneration turns off the standard directive that
	// makes the installed product create a self-signed certificate instead
	// of requiring one to be supplied. Generation is on by default and is
	// part of every installer invocation unless explicitly disabled here.
	DisableCertificateGeneration bool `yaml:"disable_certificate_generation"`
	// InstallTarget is the installation directory forwarded to the installer.
	// Empty means the platform default.
	InstallTarget string `yaml:"install_target"`
	// Artifacts lists the build outputs bundled by deploy-package.
	Artifacts []string `yaml:"artifacts"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "deploy-kit-settings.yaml"

	// DefaultServicePort is the transport port passed to the installer
	// when the settings file does not override it.
	DefaultServicePort = 8443

	// DefaultInstallerLogFilename receives the verbose installer log.
	DefaultInstallerLogFilename = "deploy-install.log"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// maxPortNumber is the highest valid TCP port.
	maxPortNumber = 65535
)

var (
	// errInvalidServicePort is returned when the configured port is out of range.
	errInvalidServicePort = errors.New("service port must be between 1 and 65535")
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Default returns a configuration populated with the standard deployment
// options used when no settings file is present.
func Default() *Config {
	cfg := new(Config)
	// Validate never fails on a zero config, it only fills defaults.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is reported with os.ErrNotExist so callers may fall back to Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	// Set default port if not specified.
	if cfg.ServicePort == 0 {
		cfg.ServicePort = DefaultServicePort
	}

	if cfg.ServicePort < 0 || cfg.ServicePort > maxPortNumber {
		return fmt.Errorf("%w: %d", errInvalidServicePort, cfg.ServicePort)
	}

	// Set default log filename if not specified.
	if cfg.InstallerLogFile == "" {
		cfg.InstallerLogFile = DefaultInstallerLogFilename
	}

	if len(cfg.Artifacts) == 0 {
		cfg.Artifacts = DefaultArtifacts()
	}

	return nil
}

// DefaultArtifacts returns the build outputs bundled by deploy-package
// for the current platform.
func DefaultArtifacts() []string {
	return []string{
		"deploy-install" + executableExtension(),
		"deploy-inspect" + executableExtension(),
		"deploy-package" + executableExtension(),
		DefaultConfigFilename,
	}
}

// DefaultInstallTarget returns the platform system directory used when no
// installation target is configured or supplied.
func DefaultInstallTarget() string {
	if runtime.GOOS == "windows" {
		systemRoot := os.Getenv("SystemRoot")
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return filepath.Join(systemRoot, "System32")
	}

	return "/usr/local"
}

// executableExtension returns ".exe" on Windows and an empty string elsewhere.
func executableExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}

	return ""
}
