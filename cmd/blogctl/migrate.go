package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(e env, cfg *ctlConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.openMigrator(cfg.PGDSN)
			if err != nil {
				return err
			}
			defer m.Close()
			applied, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}, &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.openMigrator(cfg.PGDSN)
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Status(cmd.Context(), cmd.OutOrStdout())
		},
	})
	return cmd
}
