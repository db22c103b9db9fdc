package models

import "time"

// SalesOrder is a revisioned order linked to a RefUser through RefItemID
type SalesOrder struct {
	ID            string  `gorm:"type:char(36);primaryKey"`
	RefItemID     string  `gorm:"type:char(36);not null;index"`
	RefItemTypeID int     `gorm:"not null"`
	ParentID      *string `gorm:"type:char(36)"`
	Revision      int     `gorm:"not null"`
	CreatedBy     string  `gorm:"size:64;not null;index"`
	FromUserID    string  `gorm:"size:64"`
	ToUserID      string  `gorm:"size:64;index"`
	Status        int     `gorm:"not null"`
	Comments      string  `gorm:"size:1024"`
	DateCreated   time.Time
	DateSubmitted *time.Time
	Active        bool `gorm:"not null;index"`
}

// SalesOrderLine is one product line of a sales order
type SalesOrderLine struct {
	ID          string   `gorm:"type:char(36);primaryKey"`
	OrderID     string   `gorm:"type:char(36);not null;index"`
	ItemID      string   `gorm:"size:64;not null"`
	ItemTypeID  int      `gorm:"not null"`
	Quantity    int      `gorm:"not null"`
	Price       *float64 `gorm:"type:decimal(10,2)"`
	DateCreated time.Time
}

func (SalesOrder) TableName() string {
	return "sales_orders"
}

func (SalesOrderLine) TableName() string {
	return "sales_order_lines"
}
