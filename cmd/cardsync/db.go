package main

import (
	"fmt"
	"os"

	"cardsync/config/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database operations",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Run all pending database migrations from db/migrations.

Example:
  cardsync db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		m, err := newMigrator()
		if err == nil {
			err = m.Up()
		}
		if err != nil && err != migrate.ErrNoChange {
			fmt.Println("Migration failed:", err)
			os.Exit(1)
		}
		fmt.Println("Database schema is up to date")
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			_, _ = fmt.Sscanf(args[0], "%d", &steps)
		}
		m, err := newMigrator()
		if err == nil {
			err = m.Steps(-steps)
		}
		if err != nil {
			fmt.Println("Rollback failed:", err)
			os.Exit(1)
		}
	},
}

func newMigrator() (*migrate.Migrate, error) {
	return migrate.New("file://db/migrations", database.URL())
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
}
