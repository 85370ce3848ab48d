package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired pending confirmations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, _, err := openService(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := svc.Restore(cmd.Context()); err != nil {
				return err
			}
			removed, err := svc.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired confirmation(s).\n", len(removed))
			return nil
		},
	}
}
