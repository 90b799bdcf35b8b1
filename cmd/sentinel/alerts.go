package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
	"github.com/Veraticus/payroll-sentinel/internal/storage"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect sent alerts",
	}
	cmd.AddCommand(alertsListCmd())
	return cmd
}

func alertsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <company-id>",
		Short: "List the most recent alerts sent for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			history, closeHistory, err := buildHistoryStore(ctx, cfg, store)
			if err != nil {
				return err
			}
			defer func() { _ = closeHistory() }()

			lister, ok := history.(historyStore)
			if !ok {
				return fmt.Errorf("alert history backend %q cannot be listed", cfg.Alerts.HistoryBackend)
			}
			entries, err := lister.ListAlerts(ctx, args[0], limit)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAlerts(entries))
			return err
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum alerts to show")
	return cmd
}

var (
	_ historyStore = (*storage.SQLiteStorage)(nil)
	_ historyStore = (*storage.PostgresHistoryStore)(nil)
)
