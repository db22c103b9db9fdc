package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/callcard/internal/callcard"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type txKey struct{}

// withTx returns a context carrying tx.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// quiet silences the gorm logger for hot read paths.
func quiet(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// notFound maps gorm.ErrRecordNotFound to callcard.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, callcard.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}
