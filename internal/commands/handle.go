package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/clawback/internal/render"
)

func newHandleCommand(a *app) *cobra.Command {
	var chatID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "handle <message...>",
		Short: "Handle one chat message locally and print the reply",
		Long: `Handle one chat message against the local database, as if it arrived from a chat.
Pending confirmations are stored, so "handle yes" confirms a proposal made by an earlier call.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, _, err := openService(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := svc.Restore(cmd.Context()); err != nil {
				return err
			}
			ev, err := svc.HandleMessage(cmd.Context(), chatID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}
			fmt.Fprintln(out, render.Render(ev))
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "cli", "chat ID the message belongs to")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured event instead of the reply")
	return cmd
}
