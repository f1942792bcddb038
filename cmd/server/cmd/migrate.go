package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatherbase/server/internal/storage/postgres"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Run database migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		migrationsPath := os.Getenv("MIGRATIONS_PATH")

		switch args[0] {
		case "up":
			return postgres.MigrateUp(databaseURL, migrationsPath)
		case "down":
			return postgres.MigrateDown(databaseURL, migrationsPath, migrateSteps)
		default:
			return fmt.Errorf("unknown direction %q: use up or down", args[0])
		}
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back (down only)")
}
