package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService is the order ledger over the sales order tables. Writes join
// the transaction carried by the context.
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

var _ callcard.OrderLedger = (*OrderService)(nil)

// OrdersLinkedTo returns the active orders of the given RefUsers with their lines
func (s *OrderService) OrdersLinkedTo(ctx context.Context, refUserIDs []string) ([]callcard.Order, error) {
	if len(refUserIDs) == 0 {
		return nil, nil
	}
	db := conn(ctx, s.db)

	var orders []models.SalesOrder
	err := quiet(db).
		Where("ref_item_id IN ? AND active = ?", refUserIDs, true).
		Order("date_created, id").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("orders linked to ref users: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var lines []models.SalesOrderLine
	if err := quiet(db).Where("order_id IN ?", ids).Order("date_created, id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("order lines: %w", err)
	}

	out := make([]callcard.Order, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		out[i] = callcard.Order{
			ID:             o.ID,
			RefItemID:      o.RefItemID,
			CreatedBy:      o.CreatedBy,
			FromUserID:     o.FromUserID,
			CounterpartyID: o.ToUserID,
			Status:         o.Status,
			Comments:       o.Comments,
			DateCreated:    o.DateCreated,
			DateSubmitted:  o.DateSubmitted,
		}
	}
	for _, l := range lines {
		i := index[l.OrderID]
		out[i].Lines = append(out[i].Lines, callcard.OrderLine{
			ItemID:     l.ItemID,
			ItemTypeID: l.ItemTypeID,
			Quantity:   l.Quantity,
			Price:      l.Price,
		})
	}
	return out, nil
}

// CreateOrder stores a first revision order header
func (s *OrderService) CreateOrder(ctx context.Context, o callcard.Order) (string, error) {
	row := s.header(o)
	row.Revision = 1
	if err := conn(ctx, s.db).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return row.ID, nil
}

// CreateRevision deactivates orderID and stores o as its next revision
func (s *OrderService) CreateRevision(ctx context.Context, orderID string, o callcard.Order) (string, error) {
	db := conn(ctx, s.db)

	var prev models.SalesOrder
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID).First(&prev).Error
	if err != nil {
		return "", notFound(err, "order", orderID)
	}
	if err := db.Model(&prev).Update("active", false).Error; err != nil {
		return "", fmt.Errorf("deactivate order %s: %w", orderID, err)
	}

	row := s.header(o)
	row.ParentID = &prev.ID
	row.Revision = prev.Revision + 1
	if err := db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("create revision of %s: %w", orderID, err)
	}
	return row.ID, nil
}

// AddLine appends a product line to an order
func (s *OrderService) AddLine(ctx context.Context, orderID string, line callcard.OrderLine) error {
	row := models.SalesOrderLine{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ItemID:      line.ItemID,
		ItemTypeID:  line.ItemTypeID,
		Quantity:    line.Quantity,
		Price:       line.Price,
		DateCreated: s.now().UTC(),
	}
	if err := conn(ctx, s.db).Create(&row).Error; err != nil {
		return fmt.Errorf("add line %s to %s: %w", line.ItemID, orderID, err)
	}
	return nil
}

func (s *OrderService) header(o callcard.Order) models.SalesOrder {
	created := o.DateCreated
	if created.IsZero() {
		created = s.now().UTC()
	}
	return models.SalesOrder{
		ID:            uuid.NewString(),
		RefItemID:     o.RefItemID,
		RefItemTypeID: callcard.ItemTypeCardRefUser,
		CreatedBy:     o.CreatedBy,
		FromUserID:    o.FromUserID,
		ToUserID:      o.CounterpartyID,
		Status:        o.Status,
		Comments:      o.Comments,
		DateCreated:   created,
		DateSubmitted: o.DateSubmitted,
		Active:        true,
	}
}
