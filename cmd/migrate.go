package cmd

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the issue table and indexes, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(db)

		ui.Success("Migrated %s store", cfg.Database.Type)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
