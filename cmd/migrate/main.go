package main

import (
	"fmt"
	"os"

	"telehealth-service/config"
	"telehealth-service/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var source string

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the telehealth database schema",
	}
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "migration source URL (defaults to MIGRATIONS_PATH)")

	loadConfig := func() (*config.Config, string, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		if source == "" {
			source = cfg.App.MigrationsPath
		}
		return cfg, source, nil
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, err := loadConfig()
			if err != nil {
				return err
			}
			return database.MigrateUp(src, cfg.DB)
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			cfg, src, err := loadConfig()
			if err != nil {
				return err
			}
			if err := database.MigrateDown(src, cfg.DB, steps); err != nil {
				return err
			}
			logrus.Infof("Rolled back %d migration(s)", steps)
			return nil
		},
	}
	downCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	rootCmd.AddCommand(downCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, err := loadConfig()
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(src, cfg.DB)
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
