package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibliafides/backend/internal/auth"
	"github.com/bibliafides/backend/internal/config"
)

var (
	tokenName string
	tokenTTL  time.Duration
)

// tokenCmd mints a development bearer token.
var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a bearer token for local development",
	Long: `Signs a token with AUTH_JWT_SECRET the way the identity provider would.

Example:
  fidesctl token u-123 --name "Maria Silva" --ttl 24h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return err
	}

	token, err := auth.NewVerifier(cfg).Issue(auth.User{ID: args[0], Name: tokenName}, tokenTTL)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
