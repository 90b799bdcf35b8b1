package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [destination]",
		Short: "Write a consistent copy of the database",
		Long: `Write a consistent, integrity-checked copy of the SQLite database.

The destination must not exist. It defaults to a timestamped file next to
the database.`,
		Example: `  sentinel backup
  sentinel backup /var/backups/sentinel-2026-03-01.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			dest := filepath.Join(filepath.Dir(store.Path()),
				fmt.Sprintf("sentinel-%s.db", time.Now().Format("20060102-150405")))
			if len(args) == 1 {
				dest = args[0]
			}
			if dest, err = filepath.Abs(dest); err != nil {
				return err
			}

			if err := store.Backup(ctx, dest); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Backup written to "+dest))
			return err
		},
	}
	return cmd
}
