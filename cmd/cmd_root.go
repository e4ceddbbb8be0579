// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/jcodagnone/projectmap/config"
	"github.com/jcodagnone/projectmap/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "projectmap",
	Short: "catalog of projects and where they happen",
	Long: `
projectmap keeps a catalog of projects, each one with a status, a date range and
a location that is resolved into coordinates with the Google Maps Geocoding API.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		logger, err = logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logging.Sync(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

// Version is the build version reported by --version.
var Version = "dev"

// Execute runs the root command and exits with status 1 on failure.
func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
