package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-blog/inkwell/internal/auth"
)

func newUsersCmd(e env, cfg *ctlConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Account maintenance",
	}
	var confirmed bool
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every registered account",
		Long:  "Delete every registered account. Posts are kept; issued tokens stop resolving to a user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to purge users without --yes")
			}
			repo, closeRepo, err := e.openUsers(cmd.Context(), cfg.PGDSN)
			if err != nil {
				return err
			}
			defer closeRepo()

			// purging never issues tokens
			service := auth.NewService(repo, nil, auth.ServiceConfig{})
			removed, err := service.PurgeUsers(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d user(s)\n", removed)
			return nil
		},
	}
	purge.Flags().BoolVar(&confirmed, "yes", false, "confirm the purge")
	cmd.AddCommand(purge)
	return cmd
}
