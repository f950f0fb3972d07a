// Package main implements syncctl, the operator CLI for running contact syncs
// without going through the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-confops/internal/config"
	"go-confops/internal/connectors"
	"go-confops/internal/database"
	"go-confops/internal/features/contact"
	sync_feature "go-confops/internal/features/sync"
	"go-confops/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "syncctl",
		Short: "Run and inspect Notion contact syncs",
		Long: `syncctl runs the same sync operations as the API server, directly against
the configured store. Configuration is read from the environment and .env,
exactly like the server.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newFullCmd(),
		newIncrementalCmd(),
		newRecordCmd(),
		newStatusCmd(),
		newMigrateCmd(),
		newTokenCmd(),
	)
	return root
}

// runtime is the wired sync stack for one CLI invocation.
type runtime struct {
	cfg    *config.Config
	store  *database.Store
	logger *zap.Logger
	sync   sync_feature.SyncService
	flush  func()
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log, flush, err := logger.Build(cfg, logger.NewLogSink(store))
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	svc := sync_feature.NewSyncService(
		connectors.NewNotionSource(cfg, log),
		contact.NewContactRepository(store),
		sync_feature.NewSyncLogRepository(store),
		sync_feature.NewEventHub(),
		sync_feature.NewMetrics(prometheus.NewRegistry()),
		cfg,
		log,
	)
	return &runtime{cfg: cfg, store: store, logger: log, sync: svc, flush: flush}, nil
}

func (r *runtime) Close(ctx context.Context) {
	_ = r.logger.Sync()
	r.flush()
	_ = r.store.Close(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
