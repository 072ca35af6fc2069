package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garrettladley/inbox/internal/client/github"
	"github.com/garrettladley/inbox/internal/version"
)

const (
	repoOwner = "garrettladley"
	repoName  = "inbox"
)

func checkUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-update",
		Short: "Check whether a newer release is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := version.Get()

			latest, err := github.NewClient().LatestRelease(cmd.Context(), repoOwner, repoName)
			if errors.Is(err, github.ErrNoRelease) {
				fmt.Fprintf(cmd.OutOrStdout(), "no release published yet (running %s)\n", current)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}

			if !version.IsNewer(current, latest.TagName) {
				fmt.Fprintf(cmd.OutOrStdout(), "inbox is up to date (%s)\n", current)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inbox %s is available (running %s)\n", latest.TagName, current)
			fmt.Fprintf(cmd.OutOrStdout(), "  go install github.com/garrettladley/inbox/cmd/inbox@latest\n")
			if latest.HTMLURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", latest.HTMLURL)
			}
			return nil
		},
	}
}
