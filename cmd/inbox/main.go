package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garrettladley/inbox/internal/version"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "inbox",
		Short:   "Unread notifications in your terminal",
		Version: version.Get(),
		RunE:    runWatch,
	}

	rootCmd.AddCommand(
		watchCmd(),
		countCmd(),
		listCmd(),
		readCmd(),
		readAllCmd(),
		sendCmd(),
		checkUpdateCmd(),
	)

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}
