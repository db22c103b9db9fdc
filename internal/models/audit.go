package models

import (
	"time"

	"gorm.io/datatypes"
)

// CardTransaction is one audited change of a card
type CardTransaction struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	CardID      string    `gorm:"type:char(36);not null;index"`
	Type        string    `gorm:"size:32;not null;index:idx_card_tx_type_time"`
	UserID      string    `gorm:"size:64;not null;index:idx_card_tx_user_time"`
	UserGroupID string    `gorm:"size:64"`
	Timestamp   time.Time `gorm:"column:occurred_at;not null;index:idx_card_tx_user_time;index:idx_card_tx_type_time"`
	OldValue    string    `gorm:"size:1024"`
	NewValue    string    `gorm:"size:1024"`
	Description string    `gorm:"size:1024"`
	Metadata    datatypes.JSONMap
}

func (CardTransaction) TableName() string {
	return "call_card_transactions"
}
