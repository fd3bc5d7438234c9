package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mercadobetel/pdv/config"
	"github.com/mercadobetel/pdv/pkg/database"
	"github.com/mercadobetel/pdv/pkg/migration"
)

// openDB opens the SQL database used by STORE_DRIVER=sql.
func openDB() (*gorm.DB, error) {
	return database.Open(config.DatabaseDriver(), config.DatabaseDSN())
}

// pdv migrate: run, roll back or list the SQL store migrations.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending migrations of the SQL store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			runner := migration.New(db)
			out := cmd.OutOrStdout()

			if status, _ := cmd.Flags().GetBool("status"); status {
				list, err := runner.Status()
				if err != nil {
					return err
				}
				for _, s := range list {
					state := "Pending"
					if s.Ran {
						state = fmt.Sprintf("Ran (batch %d)", s.Batch)
					}
					fmt.Fprintf(out, "%-50s  %s\n", s.Name, state)
				}
				return nil
			}

			if rollback, _ := cmd.Flags().GetBool("rollback"); rollback {
				names, err := runner.Rollback()
				for _, n := range names {
					fmt.Fprintf(out, "  ◀ Rolled back: %s\n", n)
				}
				if err == nil && len(names) == 0 {
					fmt.Fprintln(out, "Nothing to roll back.")
				}
				return err
			}

			names, err := runner.Run()
			for _, n := range names {
				fmt.Fprintf(out, "  ✅ Migrated: %s\n", n)
			}
			if err == nil && len(names) == 0 {
				fmt.Fprintln(out, "Nothing to migrate.")
			}
			return err
		},
	}
	cmd.Flags().Bool("rollback", false, "roll back the last batch")
	cmd.Flags().Bool("status", false, "list migrations and whether they ran")
	return cmd
}
