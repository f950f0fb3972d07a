package main

import (
	"context"
	"fmt"
	"time"

	sync_feature "go-confops/internal/features/sync"

	"github.com/spf13/cobra"
)

const runTimeout = 30 * time.Minute

// runSync opens the stack, runs op and prints its result. A result with
// record errors exits non-zero after printing.
func runSync(cmd *cobra.Command, op func(ctx context.Context, svc sync_feature.SyncService) (*sync_feature.Result, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	result, err := op(ctx, rt.sync)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("sync finished with %d record errors", len(result.Errors))
	}
	return nil
}

func newFullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Reconcile every Notion contact and soft-delete missing ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, func(ctx context.Context, svc sync_feature.SyncService) (*sync_feature.Result, error) {
				return svc.FullSync(ctx, sync_feature.TriggerCLI)
			})
		},
	}
}

func newIncrementalCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "incremental",
		Short: "Sync contacts edited since a point in time",
		Long: `Sync contacts edited after --since (RFC3339). Without --since the
configured INCREMENTAL_WINDOW is used.

Examples:
  syncctl incremental
  syncctl incremental --since 2024-03-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			after, err := parseSince(since)
			if err != nil {
				return err
			}
			return runSync(cmd, func(ctx context.Context, svc sync_feature.SyncService) (*sync_feature.Result, error) {
				return svc.IncrementalSync(ctx, after, sync_feature.TriggerCLI)
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "RFC3339 lower bound on last edited time")
	return cmd
}

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <notion-page-id>",
		Short: "Sync a single contact by Notion page id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, func(ctx context.Context, svc sync_feature.SyncService) (*sync_feature.Result, error) {
				return svc.SyncRecord(ctx, args[0], sync_feature.TriggerCLI)
			})
		},
	}
}

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q: expected RFC3339", raw)
	}
	t = t.UTC()
	return &t, nil
}
