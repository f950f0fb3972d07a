package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print recent sync runs and contact counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			if limit > 0 {
				logs, err := rt.sync.ListLogs(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), logs)
			}

			report, err := rt.sync.Status(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&limit, "logs", 0, "print this many log entries instead of the status report")
	return cmd
}
