package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/logger"
	"github.com/oshokin/deploy-kit/internal/msi"
	"github.com/oshokin/deploy-kit/internal/service/common"
)

// Options contains inputs for the installer invoker entry point.
type Options struct {
	// ConfigPath is an optional path to the deployment settings YAML file.
	ConfigPath string
	// PackagePath is the installer package file to install.
	PackagePath string
	// TargetDir overrides the installation directory. Empty falls back to
	// the configured target, then to the platform default.
	TargetDir string
	// Force skips the concurrent installer session guard.
	Force bool
	// Engine optionally overrides the platform installer engine used for
	// the pre-install metadata lookup. A supplied engine is not closed by
	// Run; the caller keeps ownership.
	Engine msi.Engine
}

// ExitError carries the installer subprocess exit code so the CLI can relay
// it verbatim as the process exit status.
type ExitError struct {
	// Code is the numeric status the installer subprocess returned.
	Code int
}

// Error describes the failed installation for the operator.
func (e *ExitError) Error() string {
	return fmt.Sprintf("installer exited with code %d", e.Code)
}

// errInstallerBusy indicates another Windows Installer session is in progress.
var errInstallerBusy = errors.New("another installer session is in progress")

// Run installs the package synchronously and relays the installer's exit
// code. A non-zero code is terminal: no retry, no timeout, no renumbering.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "deploy-install")

	cfg, err := loadSettings(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	// Identify the operator for the audit trail.
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		ctx = logger.WithKV(ctx, "operator", actor.Username+"@"+actor.Hostname)
	}

	if !opts.Force {
		if err = ensureInstallerIdle(ctx); err != nil {
			return err
		}
	}

	packagePath, err := resolvePackage(opts.PackagePath)
	if err != nil {
		return err
	}

	// Operator visibility only: a failed lookup never blocks the install.
	logPackageMetadata(ctx, opts.Engine, packagePath)

	target := opts.TargetDir
	if target == "" {
		target = cfg.InstallTarget
	}

	if target == "" {
		target = config.DefaultInstallTarget()
	}

	args := commandArgs(cfg, packagePath, target)

	logger.InfoKV(ctx, "Starting installer",
		"package", packagePath, "target", target, "log_file", cfg.InstallerLogFile)

	// Blocks until the installer subprocess exits; there is no timeout.
	err = exec.CommandContext(ctx, installerExecutable(), args...).Run()
	if err == nil {
		logger.Info(ctx, "Installation completed successfully")
		return nil
	}

	code, ok := exitCode(err)
	if !ok {
		return fmt.Errorf("run installer: %w", err)
	}

	logger.ErrorKV(ctx, "Installation failed", "exit_code", code)

	return &ExitError{Code: code}
}

// loadSettings loads the deployment settings, falling back to the standard
// defaults when no settings file exists.
func loadSettings(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "No settings file found, using default deployment options")
		return config.Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return cfg, nil
}

// resolvePackage resolves the package path and verifies the file exists.
func resolvePackage(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve package path: %w", err)
	}

	if _, err = os.Stat(absolute); err != nil {
		return "", fmt.Errorf("package file: %w", err)
	}

	return absolute, nil
}

// logPackageMetadata prints the product name and version before installing.
func logPackageMetadata(ctx context.Context, engine msi.Engine, packagePath string) {
	var err error

	if engine == nil {
		engine, err = msi.NewEngine()
		if err != nil {
			logger.WarnKV(ctx, "Package metadata unavailable", "error", err)
			return
		}

		// Only an engine created here is released here. A caller-supplied
		// engine stays open for the caller to reuse.
		defer func() {
			_ = engine.Close()
		}()
	}

	records, err := msi.NewReader(engine).Read(
		ctx,
		[]string{packagePath},
		[]string{msi.PropertyProductName, msi.PropertyProductVersion},
	)
	if err != nil || records[0].Err != nil {
		if err == nil {
			err = records[0].Err
		}

		logger.WarnKV(ctx, "Package metadata unavailable", "error", err)

		return
	}

	name, _ := records[0].Value(msi.PropertyProductName)
	version, _ := records[0].Value(msi.PropertyProductVersion)

	logger.InfoKV(ctx, "Installing product", "product", name, "version", version)
}

// ensureInstallerIdle refuses to start while another installer session runs.
func ensureInstallerIdle(ctx context.Context) error {
	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	executable := installerProcessName()
	for _, process := range processes {
		if process.Pid() == os.Getpid() {
			continue
		}

		if strings.EqualFold(process.Executable(), executable) {
			logger.WarnKV(ctx, "Installer session detected", "pid", process.Pid())
			return errInstallerBusy
		}
	}

	return nil
}

// commandArgs assembles the fixed installer options: quiet mode, verbose log,
// transport port, certificate generation and the installation target.
func commandArgs(cfg *config.Config, packagePath, target string) []string {
	args := []string{
		"/i", packagePath,
		"/qn",
		"/l*v", cfg.InstallerLogFile,
		fmt.Sprintf("SERVICEPORT=%d", cfg.ServicePort),
	}

	if !cfg.DisableCertificateGeneration {
		args = append(args, "GENERATECERT=1")
	}

	if target != "" {
		args = append(args, "INSTALLDIR="+target)
	}

	return args
}

// installerExecutable returns the platform installer engine executable.
func installerExecutable() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("WINDIR"), "system32", "msiexec.exe")
	}

	// Non-Windows hosts may provide msitools or a wrapper on PATH.
	return "msiexec"
}

// installerProcessName returns the installer process name for the guard scan.
func installerProcessName() string {
	if runtime.GOOS == "windows" {
		return "msiexec.exe"
	}

	return "msiexec"
}

// exitCode extracts the numeric status from a subprocess error.
func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}

	return 0, false
}
