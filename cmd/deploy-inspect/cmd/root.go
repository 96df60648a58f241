package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/deploy-kit/internal/logger"
	"github.com/oshokin/deploy-kit/internal/service/inspector"
	"github.com/oshokin/deploy-kit/internal/version"
)

var (
	// properties restricts the requested standard property names.
	properties []string

	// logLevel controls logging verbosity.
	logLevel string

	// rootCmd represents the base command for reading package metadata.
	rootCmd = &cobra.Command{
		Use:   "deploy-inspect [package ...]",
		Short: "Read product metadata out of installer package files",
		Long: "Read product metadata out of installer package files. " +
			"When no packages are given on the command line, paths are read from standard input, one per line.",
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &inspector.Options{
				Paths:      args,
				Properties: properties,
			}

			return inspector.Run(ctx, options)
		},
	}
)

// Execute runs the deploy-inspect CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringArrayVarP(&properties, "property", "p", nil,
		"standard property to read (repeatable, defaults to all five)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
