package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/logger"
	"github.com/oshokin/deploy-kit/internal/service/installer"
	"github.com/oshokin/deploy-kit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// force skips the concurrent installer session guard.
	force bool

	// logLevel controls logging verbosity.
	logLevel string

	// rootCmd represents the base command for silent package installation.
	rootCmd = &cobra.Command{
		Use:   "deploy-install <package> [target-dir]",
		Short: "Install a package silently with the fixed deployment options",
		Args:  cobra.RangeArgs(1, 2),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &installer.Options{
				ConfigPath:  configPath,
				PackagePath: args[0],
				Force:       force,
			}

			if len(args) > 1 {
				options.TargetDir = args[1]
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the deploy-install CLI. The installer subprocess exit code is
// relayed verbatim as the process exit status; other failures exit with 1.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *installer.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "install even if another installer session is running")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
