package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API bearer tokens",
	}
	cmd.AddCommand(tokenIssueCmd())
	cmd.AddCommand(tokenRevokeCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue <userId>",
		Short: "Issue a bearer token for a user, creating the user if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, closeDB, err := openUsers(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			token, err := users.IssueToken(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Printf("User:  %s\n", args[0])
			fmt.Printf("Token: %s\n", token)
			fmt.Println("\nThe token is shown once. Set it as INBOX_TOKEN.")
			return nil
		},
	}
}

func tokenRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, closeDB, err := openUsers(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := users.RevokeToken(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to revoke token: %w", err)
			}

			fmt.Println("Token revoked")
			return nil
		},
	}
}
