package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// HistoryService reads past visit values for the summarizer.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

type historyRow struct {
	CounterpartyID string
	ItemID         string
	PropertyName   string
	Value          string
	Quantity       int
	SubmitDate     time.Time
	CreatedDate    time.Time
	DateSubmitted  *time.Time
}

// IndexHistory returns the newest Lookback stored values per counterparty,
// item and property of the user's RefUsers in the query statuses.
func (s *HistoryService) IndexHistory(ctx context.Context, q callcard.HistoryQuery) ([]callcard.HistoryRow, error) {
	if q.Lookback <= 0 || len(q.CounterpartyIDs) == 0 {
		return nil, nil
	}

	tx := quiet(conn(ctx, s.db))
	ranked := tx.
		Table(models.IndexEntry{}.TableName()+" AS i").
		Select("r.ref_user_id AS counterparty_id, i.item_id, i.property_name, i.property_value AS value, i.submit_date, " +
			"ROW_NUMBER() OVER (PARTITION BY r.ref_user_id, i.item_id, i.property_name ORDER BY i.submit_date DESC) AS rn").
		Joins("JOIN "+models.RefUser{}.TableName()+" r ON r.id = i.ref_user_id").
		Joins("JOIN "+models.Card{}.TableName()+" c ON c.id = r.card_id").
		Where("r.ref_user_id IN ?", q.CounterpartyIDs)
	if q.UserID != "" {
		ranked = ranked.Where("c.user_id = ?", q.UserID)
	}
	if len(q.Statuses) > 0 {
		ranked = ranked.Where("r.status IN ?", q.Statuses.Ints())
	}

	var rows []historyRow
	err := tx.
		Clauses(hints.CommentBefore("select", "callcard:index-history")).
		Table("(?) AS h", ranked).
		Where("h.rn <= ?", q.Lookback).
		Order("h.submit_date DESC").Order("h.rn").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("index history: %w", err)
	}

	out := make([]callcard.HistoryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, callcard.HistoryRow{
			CounterpartyID: r.CounterpartyID,
			ItemID:         r.ItemID,
			PropertyName:   r.PropertyName,
			Value:          r.Value,
			SubmitDate:     r.SubmitDate,
		})
	}
	return out, nil
}

// OrderHistory returns the newest Lookback order line quantities per
// counterparty and item as sales values. Only active revisions count.
func (s *HistoryService) OrderHistory(ctx context.Context, q callcard.HistoryQuery) ([]callcard.HistoryRow, error) {
	if q.Lookback <= 0 || len(q.CounterpartyIDs) == 0 {
		return nil, nil
	}

	tx := quiet(conn(ctx, s.db))
	ranked := tx.
		Table(models.SalesOrderLine{}.TableName()+" AS l").
		Select("o.to_user_id AS counterparty_id, l.item_id, l.quantity, o.date_created AS created_date, o.date_submitted, " +
			"ROW_NUMBER() OVER (PARTITION BY o.to_user_id, l.item_id ORDER BY o.date_created DESC) AS rn").
		Joins("JOIN "+models.SalesOrder{}.TableName()+" o ON o.id = l.order_id").
		Joins("JOIN "+models.RefUser{}.TableName()+" r ON r.id = o.ref_item_id").
		Where("o.active = ? AND o.to_user_id IN ?", true, q.CounterpartyIDs)
	if q.UserID != "" {
		ranked = ranked.Where("o.created_by = ?", q.UserID)
	}
	if len(q.Statuses) > 0 {
		ranked = ranked.Where("r.status IN ?", q.Statuses.Ints())
	}

	var rows []historyRow
	err := tx.
		Clauses(hints.CommentBefore("select", "callcard:order-history")).
		Table("(?) AS h", ranked).
		Where("h.rn <= ?", q.Lookback).
		Order("h.created_date DESC").Order("h.rn").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}

	out := make([]callcard.HistoryRow, 0, len(rows))
	for _, r := range rows {
		when := r.CreatedDate
		if r.DateSubmitted != nil {
			when = *r.DateSubmitted
		}
		out = append(out, callcard.HistoryRow{
			CounterpartyID: r.CounterpartyID,
			ItemID:         r.ItemID,
			PropertyName:   callcard.PropertySales,
			Value:          strconv.Itoa(r.Quantity),
			SubmitDate:     when,
		})
	}
	return out, nil
}
