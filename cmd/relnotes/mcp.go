package main

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/observability"
	mcpserver "github.com/HendryAvila/relnotes/internal/server"
)

func newMCPCmd(a *app) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMCP(cmd.Context(), metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "also serve Prometheus metrics on this address")
	return cmd
}

func (a *app) runMCP(ctx context.Context, metricsAddr string) error {
	products, err := a.openCatalog()
	if err != nil {
		return err
	}
	store, err := a.openPrefs()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.log.Warn("closing preferences", zap.Error(err))
		}
	}()

	var metrics *observability.Metrics
	if metricsAddr != "" {
		metrics = observability.NewMetrics()
		store.ObserveWrites(metrics.ObservePreferenceWrite)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := runHTTP(mctx, srv, 2*time.Second, a.log.Named("metrics")); err != nil {
				a.log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	ai, err := a.newAI(ctx, metrics)
	if err != nil {
		return err
	}

	s, err := mcpserver.New(mcpserver.Deps{Catalog: products, Prefs: store, AI: ai})
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}
