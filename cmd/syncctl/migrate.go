package main

import (
	"context"
	"fmt"
	"time"

	"go-confops/internal/config"
	"go-confops/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the contacts, sync_log and app_logs schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			// Migrations never reach Notion, so its settings are not required.
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := database.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate %s: %w", store.Backend, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", store.Backend)
			return nil
		},
	}
}
