package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Opens the database selected by STORE and applies pending migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := openUsers(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			fmt.Println("Migrations applied successfully")
			return nil
		},
	}
}
