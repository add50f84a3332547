// cmd/server/migrate.go
package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.RunMigrations(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			logrus.Info("Migrations complete")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var withAdmin bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the launch catalog and, optionally, the admin account",
		Long: `Load the launch catalog into the database.

Brands, categories and products that already exist are left untouched, so the
command can be run repeatedly. With --admin the account named by ADMIN_EMAIL
and ADMIN_PASSWORD is created as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.RunMigrations(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			return seed(cmd.Context(), cfg, db, withAdmin)
		},
	}

	cmd.Flags().BoolVar(&withAdmin, "admin", false, "also create the admin account from ADMIN_EMAIL/ADMIN_PASSWORD")
	return cmd
}

func seed(ctx context.Context, cfg *config.Config, db *gorm.DB, withAdmin bool) error {
	if err := database.SeedCatalog(ctx, db); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if withAdmin && cfg.Seed.AdminEmail != "" {
		if err := database.SeedAdmin(ctx, db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
	}
	return nil
}
