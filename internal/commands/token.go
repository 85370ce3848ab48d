package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/clawback/internal/auth"
)

func newTokenCommand(a *app) *cobra.Command {
	var bridge string
	var chats []string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a chat bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret (or CLAWBACK_JWT_SECRET) is not set")
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = a.cfg.Auth.TokenTTL
			}
			token, err := auth.NewJWTManager(a.cfg.Auth.JWTSecret, ttl).Generate(bridge, chats...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&bridge, "bridge", "", "bridge name (required)")
	_ = cmd.MarkFlagRequired("bridge")
	cmd.Flags().StringSliceVar(&chats, "chat", nil, "restrict the token to these chat IDs (default: any chat)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry (default: auth.token_ttl)")
	return cmd
}
