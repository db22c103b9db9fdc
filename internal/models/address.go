package models

import (
	"time"

	"gorm.io/datatypes"
)

// Address holds the last known geo position of a counterparty
type Address struct {
	ID             string  `gorm:"type:char(36);primaryKey"`
	CounterpartyID string  `gorm:"size:64;not null;index"`
	Latitude       float64 `gorm:"not null"`
	Longitude      float64 `gorm:"not null"`
	CreatedAt      time.Time
}

// EventRecord is an emitted domain event kept in the outbox table
type EventRecord struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	Kind       int               `gorm:"not null;index"`
	UserID     string            `gorm:"size:64;index"`
	GameTypeID int
	Properties datatypes.JSONMap
	CreatedAt  time.Time
}

func (Address) TableName() string {
	return "addresses"
}

func (EventRecord) TableName() string {
	return "event_outbox"
}
