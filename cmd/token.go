package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/calresolve/internal/config"
	"github.com/teemow/calresolve/internal/google"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored Google OAuth tokens",
	}
	cmd.AddCommand(newTokenImportCmd())
	return cmd
}

func newTokenImportCmd() *cobra.Command {
	var (
		account string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store an OAuth token for an account",
		Long: `Store a Google OAuth token (the JSON form of an oauth2.Token, e.g. as
written by another Google tool) for an account. The token must carry a
refresh token or an access token and grant the calendar scope.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			provider := google.NewFileTokenProvider(cfg.TokenDir)
			if err := importToken(provider, account, file); err != nil {
				return err
			}
			cmd.Printf("Token for account %q stored in %s\n", account, provider.TokenPath(account))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name the token is stored under")
	cmd.Flags().StringVar(&file, "file", "", "Path to the token JSON file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// importToken reads the token at path and saves it for account.
func importToken(provider *google.FileTokenProvider, account, path string) error {
	if err := google.ValidateAccountName(account); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return fmt.Errorf("token file %s holds neither an access nor a refresh token", path)
	}

	if err := provider.SaveToken(account, &token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
