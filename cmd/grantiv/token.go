package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantiv/internal/auth"
)

var (
	flagTokenUser string
	flagTokenOrg  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user in an organization",
	Long: `Issue a signed bearer token. Export it as GRANTIV_TOKEN together with
GRANTIV_ORG_ID and GRANTIV_USER_ID to use the client commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagTokenUser == "" || flagTokenOrg == "" {
			return fmt.Errorf("--user and --org are required")
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret (or GRANTIV_JWT_SECRET) is required")
		}
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
		if err != nil {
			return err
		}
		token, err := issuer.Issue(flagTokenUser, flagTokenOrg)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenUser, "user", "", "user id")
	tokenCmd.Flags().StringVar(&flagTokenOrg, "org", "", "organization id")
}
