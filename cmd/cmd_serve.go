// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/projectmap/api"
	"github.com/jcodagnone/projectmap/project"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveOptions struct {
	Addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the projects HTTP API",
	Long: `
Serves the /api/projects endpoints, plus /healthz and /metrics.

Locations are resolved with the Google Maps Geocoding API when a project is
created, or updated with a location.
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := cfg.Server.Addr
		if serveOptions.Addr != "" {
			addr = serveOptions.Addr
		}

		repo, closeRepo, err := openRepository(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer closeRepo()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		manager := project.NewManager(repo, newGeocoder(ctx, cfg.Geocoding, reg), logger.Named("projects"))
		server := api.NewServer(manager, logger.Named("api"), reg)

		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("version", Version),
		)

		if err := server.Run(ctx, addr, cfg.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOptions.Addr, "addr", "a", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
