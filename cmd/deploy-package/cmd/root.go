package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/deploy-kit/internal/config"
	"github.com/oshokin/deploy-kit/internal/service/packager"
	"github.com/oshokin/deploy-kit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// outputDir receives the manifest and the archive.
	outputDir string

	// signingKeyPath points at an armored OpenPGP private key.
	signingKeyPath string

	// rootCmd represents the base command for bundling build artifacts.
	rootCmd = &cobra.Command{
		Use:   "deploy-package",
		Short: "Bundle build artifacts into a distributable archive",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:     configPath,
				OutputDir:      outputDir,
				SigningKeyPath: signingKeyPath,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the deploy-package CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory for the archive and manifest")
	rootCmd.Flags().StringVarP(&signingKeyPath, "signing-key", "k", "",
		"armored OpenPGP private key used to sign the archive")
}
