package models

import "time"

// Card is one visit card engagement owned by a user
type Card struct {
	ID            string `gorm:"type:char(36);primaryKey"`
	TemplateID    string `gorm:"type:char(36);not null;index"`
	UserID        string `gorm:"type:char(36);not null;index:idx_card_user_ref"`
	InternalRefNo string `gorm:"size:64;index:idx_card_user_ref"`
	StartDate     time.Time
	EndDate       *time.Time
	LastUpdated   *time.Time
	Comments      string `gorm:"size:1024"`
	Active        bool   `gorm:"not null;index"`
}

// RefUser is a counterparty engagement recorded on a card
type RefUser struct {
	ID             string `gorm:"type:char(36);primaryKey"`
	CardID         string `gorm:"type:char(36);not null;index;index:idx_ref_user_card_ref"`
	CounterpartyID string `gorm:"column:ref_user_id;size:64;not null;index"`
	SourceUserID   string `gorm:"size:64"`
	InternalRefNo  string `gorm:"size:64;index:idx_ref_user_card_ref"`
	RefNo          string `gorm:"size:64"`
	StartDate      *time.Time
	EndDate        *time.Time
	LastUpdated    *time.Time
	Comment        string `gorm:"size:1024"`
	Status         *int
	Active         bool `gorm:"not null"`
}

// IndexEntry is one stored attribute value of a RefUser item
type IndexEntry struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	RefUserID     string    `gorm:"type:char(36);not null;index"`
	ItemID        string    `gorm:"size:64;not null;index"`
	ItemTypeID    int       `gorm:"not null"`
	PropertyName  string    `gorm:"size:255;not null"`
	PropertyValue string    `gorm:"size:1024"`
	Status        int       `gorm:"not null"`
	SubmitDate    time.Time `gorm:"index"`
	Amount        *float64  `gorm:"type:decimal(7,2)"`
	Type          int
}

// TableName overrides the table name for Card
func (Card) TableName() string {
	return "call_cards"
}

// TableName overrides the table name for RefUser
func (RefUser) TableName() string {
	return "call_card_ref_users"
}

// TableName overrides the table name for IndexEntry
func (IndexEntry) TableName() string {
	return "call_card_ref_user_indexes"
}
