package main

import (
	"fmt"
	"os"

	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/database"
	"github.com/localnerve/callcard/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the callcard database schema",
	Long: `Apply or inspect the callcard schema for the database configured by
the DB_* environment variables (or .env).

mysql and postgres use the embedded SQL migrations. sqlite and sqlserver
use the model based "auto" command.`,
	SilenceUsage: true,
}

func gooseCmd(use, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				return database.Migrate(cmd.Context(), db, cfg.DBType, log, cmd.Name(), args...)
			})
		},
	}
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Create or update tables from the models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB, log *zap.Logger) error {
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			log.Info("schema updated from models")
			return nil
		})
	},
}

func withDB(fn func(*config.Config, *gorm.DB, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	return fn(cfg, db, log)
}

func init() {
	rootCmd.AddCommand(
		gooseCmd("up", "Apply all pending migrations", cobra.NoArgs),
		gooseCmd("up-to VERSION", "Apply migrations up to VERSION", cobra.ExactArgs(1)),
		gooseCmd("down", "Roll back the latest migration", cobra.NoArgs),
		gooseCmd("down-to VERSION", "Roll back to VERSION", cobra.ExactArgs(1)),
		gooseCmd("redo", "Roll back and reapply the latest migration", cobra.NoArgs),
		gooseCmd("status", "Show the status of every migration", cobra.NoArgs),
		gooseCmd("version", "Print the current schema version", cobra.NoArgs),
		autoCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
