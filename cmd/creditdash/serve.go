package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creditdash/adapters/tabular"
	"creditdash/internal/admin"
	"creditdash/internal/config"
	"creditdash/internal/loader"
	"creditdash/internal/logging"
	"creditdash/internal/metrics"
	"creditdash/internal/session"
	"creditdash/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.Log, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	m := metrics.New()
	reader := tabular.NewReader(tabular.DefaultCoercionConfig())
	cache := loader.NewCache(reader, loader.Options{
		MaxConcurrentLoads: cfg.Data.MaxConcurrentLoads,
		MaxUploadBytes:     cfg.Data.MaxUploadBytes(),
		MaxUploads:         cfg.Data.MaxUploads,
	}, m)

	if cfg.Server.UsesDevSecret() {
		logger.Warn("using the built-in session secret; set CREDITDASH_SERVER_SESSION_SECRET in production")
	}
	store := session.NewStore([]byte(cfg.Server.SessionSecret), cache, cfg.Data.DefaultFile)

	dashboard, err := ui.NewServer(ui.Deps{
		Sessions:       store,
		Metrics:        m,
		PageSize:       cfg.Data.PageSize,
		MaxUploadBytes: cfg.Data.MaxUploadBytes(),
		GinMode:        cfg.Server.GinMode,
	})
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr(),
		Handler:           dashboard.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}}
	if cfg.Admin.Enabled {
		servers = append(servers, &http.Server{
			Addr:              cfg.Admin.Addr(),
			Handler:           admin.NewRouter(m, cache, cfg.Data.DefaultFile),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	// Warm the default dataset so the first page view does not pay for parsing
	g.Go(func() error {
		start := time.Now()
		ds, err := cache.Load(gctx, loader.PathSource(cfg.Data.DefaultFile))
		if err != nil {
			logger.Warn("default dataset unavailable", "file", cfg.Data.DefaultFile, "error", err)
			return nil
		}
		logger.Info("default dataset loaded", "file", cfg.Data.DefaultFile,
			"rows", ds.NumRows(), "columns", ds.NumColumns(), "duration", time.Since(start))
		return nil
	})

	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
