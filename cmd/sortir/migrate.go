package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sortir-backend/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status|down]",
	Short:     "Apply or inspect Postgres migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}

		ctx := cmd.Context()
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		switch action {
		case "status":
			return db.MigrationStatus(ctx, sqlDB)
		case "down":
			return db.RollbackMigration(ctx, sqlDB)
		default:
			return db.RunMigrations(ctx, sqlDB)
		}
	},
}
