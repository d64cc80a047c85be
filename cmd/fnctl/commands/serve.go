package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/internal/metrics"
	"github.com/systmms/fnconsole/internal/server"
)

// NewServeCommand creates the 'serve' command
func NewServeCommand(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the documentation and resource views over HTTP",
		Long: `Serve the API documentation, read-only views of functions and secrets,
and Prometheus metrics.

When the record store cannot be opened the documentation is still served and
the resource routes answer 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Definition == nil {
				if err := cfg.LoadOrDefault(); err != nil {
					return err
				}
			}
			if addr == "" {
				addr = cfg.Definition.Server.Addr
			}

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			opts := server.Options{Catalog: cat, Gatherer: reg, Logger: cfg.Logger}

			c, err := openClients(cmd.Context(), cfg, metrics.NewRecorder(reg))
			if err != nil {
				cfg.Logger.Warn("Record store unavailable, serving documentation only: %v", err)
			} else {
				defer func() { _ = c.Close() }()
				opts.Functions = c.functions
				opts.Secrets = c.secrets
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, server.New(opts), addr, cfg.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")

	return cmd
}
