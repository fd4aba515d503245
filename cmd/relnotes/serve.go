package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/relnotes/internal/api"
	"github.com/HendryAvila/relnotes/internal/config"
	"github.com/HendryAvila/relnotes/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (GET /api/products, POST /api/ai-search)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
				if err := config.Validate(a.cfg); err != nil {
					return fmt.Errorf("validate config: %w", err)
				}
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, err := a.openCatalog()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	ai, err := a.newAI(ctx, metrics)
	if err != nil {
		return err
	}

	var traceService string
	if a.cfg.Tracing.Enabled {
		shutdownTracing, err := observability.InitTracing(a.cfg.Tracing.ServiceName, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				a.log.Warn("tracing shutdown", zap.Error(err))
			}
		}()
		traceService = a.cfg.Tracing.ServiceName
	}

	var limiter *rate.Limiter
	if l := a.cfg.Limits; l.RPS() > 0 {
		limiter = rate.NewLimiter(rate.Limit(l.RPS()), max(l.AISearchBurst, 1))
	}

	router := api.NewRouter(api.Deps{
		Catalog:       products,
		AI:            ai,
		Metrics:       metrics,
		Log:           a.log.Named("http"),
		Limiter:       limiter,
		AITimeout:     a.cfg.AI.Timeout.Std(),
		MaxQueryBytes: a.cfg.Limits.MaxQueryBytes,
		AllowOrigins:  a.cfg.CORS.AllowOrigins,
		TraceService:  traceService,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return runHTTP(ctx, srv, a.cfg.Shutdown.Std(), a.log)
}

// runHTTP serves srv until ctx is done, then shuts it down within grace.
func runHTTP(ctx context.Context, srv *http.Server, grace time.Duration, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Duration("grace", grace))
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
