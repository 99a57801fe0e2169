// Command migrate-legacy copies the legacy SQLite deals database into the
// hosted store and prints a summary of what it wrote.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pauljones0/commodity-tracker/internal/config"
	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/legacy"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/storage"
	"github.com/pauljones0/commodity-tracker/internal/supabase"
)

func main() {
	dbPath := flag.String("db", envOr("LEGACY_DB_PATH", "database/deals.db"), "path to the legacy deals.db")
	email := flag.String("email", os.Getenv("MIGRATE_EMAIL"), "account to sign in as before writing")
	password := flag.String("password", os.Getenv("MIGRATE_PASSWORD"), "password for -email")
	flag.Parse()

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

	if err := run(ctx, cfg, *dbPath, *email, *password, logger); err != nil {
		logger.Error("Legacy migration failed", logx.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dbPath, email, password string, logger *slog.Logger) error {
	db, err := legacy.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open legacy database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	client, err := supabase.New(supabase.Options{
		URL:               cfg.Supabase.URL,
		AnonKey:           cfg.Supabase.AnonKey,
		RequestsPerSecond: cfg.Supabase.RequestsPerSecond,
		Burst:             cfg.Supabase.Burst,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("supabase client: %w", err)
	}
	if email != "" {
		if _, err := client.SignInWithPassword(ctx, email, password); err != nil {
			return fmt.Errorf("sign in as %s: %w", email, err)
		}
	}

	var tables gateway.Tables = client
	if cfg.DataBackend == config.BackendFirestore {
		store, err := storage.New(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("firestore client: %w", err)
		}
		defer store.Close()
		tables = store
	}

	m := legacy.NewMigrator(tables, db, logger)
	report, runErr := m.Run(ctx)
	if report == nil {
		return runErr
	}

	fmt.Printf("Sources: %d read, %d created, %d reused\n", report.SourcesRead, report.SourcesCreated, report.SourcesReused)
	fmt.Printf("Deals:   %d read, %d migrated\n", report.DealsRead, report.DealsMigrated)
	fmt.Printf("Analyses migrated: %d\n", report.AnalysesMigrated)

	counts, err := m.Verify(ctx)
	if err != nil {
		logger.Warn("Verification incomplete", logx.Error(err))
	}
	fmt.Printf("Now stored: %d sources, %d deals, %d analyses\n", counts.Sources, counts.Deals, counts.Analyses)

	if runErr != nil {
		return fmt.Errorf("some rows were not migrated: %w", runErr)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
