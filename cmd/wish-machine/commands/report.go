package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"wish-machine/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the admin summary of users, wishes and subscribers as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.DB) error {
			summary, err := db.Summary(ctx, time.Now())
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), summary)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
