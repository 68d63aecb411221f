package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/core/db"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply policy store schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "show migration status instead of applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer conn.Close()

	if migrateStatus {
		statuses, err := db.MigrateStatus(conn)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", s.ID, state)
		}
		return nil
	}

	if err := db.MigrateUp(conn); err != nil {
		return err
	}
	logger.Info("migrations applied", "db", cfg.DatabaseURL)
	return nil
}
