package main

import (
	"fmt"
	"time"

	"go-confops/internal/config"
	"go-confops/internal/middleware"
	"go-confops/pkg/utils"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		roles  []string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for calling the sync API",
		Long: `Mint a bearer token signed with JWT_SECRET.

Examples:
  syncctl token --user ops-bot --role sync_operator
  syncctl token --user alice --role admin --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			utils.SetSecret(cfg.JWTSecret)

			token, err := utils.GenerateToken(userID, roles, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "syncctl", "subject user id")
	cmd.Flags().StringSliceVar(&roles, "role", []string{middleware.RoleSyncOperator}, "role to grant, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
