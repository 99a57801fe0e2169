package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/commodity-tracker/internal/config"
	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/metrics"
	"github.com/pauljones0/commodity-tracker/internal/notify"
	"github.com/pauljones0/commodity-tracker/internal/server"
	"github.com/pauljones0/commodity-tracker/internal/session"
	"github.com/pauljones0/commodity-tracker/internal/storage"
	"github.com/pauljones0/commodity-tracker/internal/supabase"
)

func main() {
	slog.Info("Starting commodity deal tracker...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	logger := logx.New(os.Stderr, cfg.Log.Format, cfg.LogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx = logx.WithLogger(ctx, logger)

	opts := supabase.Options{
		URL:               cfg.Supabase.URL,
		AnonKey:           cfg.Supabase.AnonKey,
		RequestsPerSecond: cfg.Supabase.RequestsPerSecond,
		Burst:             cfg.Supabase.Burst,
		RefreshMargin:     cfg.Supabase.TokenRefreshMargin,
		Logger:            logger,
	}
	if cfg.Supabase.SessionFile != "" {
		opts.Store = supabase.NewFileStore(cfg.Supabase.SessionFile)
	}
	client, err := supabase.New(opts)
	if err != nil {
		logger.Error("Critical error initializing Supabase client", logx.Error(err))
		os.Exit(1)
	}
	gw := client.Gateway()

	if cfg.DataBackend == config.BackendFirestore {
		store, err := storage.New(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("Critical error initializing Firestore client", logx.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		gw = gateway.Gateway{Tables: store, Auth: client, Functions: client}
		logger.Info("Table reads and writes go to Firestore", "project", cfg.ProjectID)
	}

	state := session.New(gw.Auth, gw.Tables, logger)
	state.Init(ctx)
	defer state.Close()

	queue := notify.NewQueue(cfg.NotifyDuration)
	defer queue.Close()

	srv := server.New(gw, state, queue, logger)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	server.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(gctx, g, httpServer)
	if cfg.Server.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.NewPrometheusServer(cfg.Server.MetricsAddr).Run(gctx)
		})
	}
	g.Go(func() error {
		return client.AutoRefresh(gctx, cfg.Supabase.TokenRefreshInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", logx.Error(err))
		os.Exit(1)
	}
	logger.Info("Server stopped.")
}
