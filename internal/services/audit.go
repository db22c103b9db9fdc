package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog keeps card transactions in call_card_transactions.
type AuditLog struct {
	db *gorm.DB
}

func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

var _ callcard.AuditLog = (*AuditLog)(nil)

// Record inserts txs, assigning ids to those without one
func (a *AuditLog) Record(ctx context.Context, txs []callcard.CardTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]models.CardTransaction, len(txs))
	for i, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		rows[i] = models.CardTransaction{
			ID:          tx.ID,
			CardID:      tx.CardID,
			Type:        string(tx.Type),
			UserID:      tx.UserID,
			UserGroupID: tx.UserGroupID,
			Timestamp:   tx.Timestamp,
			OldValue:    tx.OldValue,
			NewValue:    tx.NewValue,
			Description: tx.Description,
		}
		if len(tx.Metadata) > 0 {
			rows[i].Metadata = datatypes.JSONMap(tx.Metadata)
		}
	}
	if err := conn(ctx, a.db).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert card transactions: %w", err)
	}
	return nil
}

// Transactions pages over matching transactions, newest first
func (a *AuditLog) Transactions(ctx context.Context, f callcard.TransactionFilter, offset, limit int) ([]callcard.CardTransaction, int64, error) {
	matching := func() *gorm.DB {
		q := quiet(conn(ctx, a.db)).Model(&models.CardTransaction{})
		if f.CardID != "" {
			q = q.Where("card_id = ?", f.CardID)
		}
		if f.UserID != "" {
			q = q.Where("user_id = ?", f.UserID)
		}
		if f.Type != "" {
			q = q.Where("type = ?", string(f.Type))
		}
		if f.From != nil {
			q = q.Where("occurred_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("occurred_at <= ?", *f.To)
		}
		return q
	}

	var total int64
	if err := matching().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count card transactions: %w", err)
	}
	var rows []models.CardTransaction
	err := matching().
		Order("occurred_at DESC").
		Order("id").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("card transactions: %w", err)
	}

	out := make([]callcard.CardTransaction, len(rows))
	for i, r := range rows {
		out[i] = callcard.CardTransaction{
			ID:          r.ID,
			CardID:      r.CardID,
			Type:        callcard.TransactionType(r.Type),
			UserID:      r.UserID,
			UserGroupID: r.UserGroupID,
			Timestamp:   r.Timestamp,
			OldValue:    r.OldValue,
			NewValue:    r.NewValue,
			Description: r.Description,
			Metadata:    r.Metadata,
		}
	}
	return out, total, nil
}
