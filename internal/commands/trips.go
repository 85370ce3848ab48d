package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/render"
)

func newTripsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trips",
		Short: "List trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, _, err := openService(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			trips, err := svc.Trips(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(trips) == 0 {
				fmt.Fprintln(out, "No trips yet.")
				return nil
			}
			for _, t := range trips {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
}

func newBalancesCommand(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "balances <trip>",
		Short: "Print a trip's balances and suggested transfers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var currency money.Currency
			if in != "" {
				c, err := money.ParseCurrency(in)
				if err != nil {
					return err
				}
				currency = c
			}

			store, svc, _, err := openService(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := svc.Balances(cmd.Context(), args[0], currency)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(render.Balances(report), "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "currency to convert into (code, symbol or name)")
	return cmd
}
