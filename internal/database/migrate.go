package database

import (
	"context"
	"fmt"

	"github.com/localnerve/callcard/data"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrationDir returns the goose dialect and embedded migration directory
// for a database type. sqlite and sqlserver use AutoMigrate instead.
func MigrationDir(dbType string) (dialect, dir string, err error) {
	switch dbType {
	case "mysql", "mariadb":
		return "mysql", "migrations/mysql", nil
	case "postgres", "postgresql":
		return "postgres", "migrations/postgres", nil
	}
	return "", "", fmt.Errorf("no SQL migrations for database type %q", dbType)
}

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

// Migrate runs a goose command (up, down, status, version, redo, reset)
// with the embedded migrations.
func Migrate(ctx context.Context, db *gorm.DB, dbType string, log *zap.Logger, command string, args ...string) error {
	dialect, dir, err := MigrationDir(dbType)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(data.Migrations)
	goose.SetLogger(gooseLogger{log.Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
