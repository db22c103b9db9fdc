package models

import "time"

// Template declares which counterparties a user visits and what is collected
type Template struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	Name        string `gorm:"size:255;not null"`
	UserGroupID string `gorm:"size:64;index:idx_template_scope"`
	GameTypeID  int    `gorm:"index:idx_template_scope"`
	StartDate   *time.Time
	EndDate     *time.Time
	Active      bool `gorm:"not null"`
}

// TemplateEntry is an item of a template with its CSV property list
type TemplateEntry struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	TemplateID string `gorm:"type:char(36);not null;index"`
	ItemID     string `gorm:"size:64;not null"`
	ItemTypeID int    `gorm:"not null"`
	Properties string `gorm:"size:1024"`
	Ordering   int
}

// TemplatePOS assigns a counterparty to a template
type TemplatePOS struct {
	ID             string `gorm:"type:char(36);primaryKey"`
	TemplateID     string `gorm:"type:char(36);not null;index"`
	CounterpartyID string `gorm:"column:ref_user_id;size:64;not null"`
	GroupID        *int
	Mandatory      bool
	Active         bool `gorm:"not null"`
	Ordering       int
}

// TemplateReference is an auxiliary per-counterparty obligation such as a survey
type TemplateReference struct {
	ID             string `gorm:"type:char(36);primaryKey"`
	TemplateID     string `gorm:"type:char(36);not null;index"`
	CounterpartyID string `gorm:"column:ref_user_id;size:64;not null"`
	ItemID         string `gorm:"size:64;not null"`
	ItemTypeID     int    `gorm:"not null"`
	Mandatory      bool
	Active         bool `gorm:"not null"`
	Ordering       int
}

// TemplateUser assigns a template directly to a user
type TemplateUser struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	TemplateID string `gorm:"type:char(36);not null;index:idx_template_user,unique"`
	UserID     string `gorm:"type:char(36);not null;index:idx_template_user,unique"`
}

func (Template) TableName() string {
	return "call_card_templates"
}

func (TemplateEntry) TableName() string {
	return "call_card_template_entries"
}

func (TemplatePOS) TableName() string {
	return "call_card_template_pos"
}

func (TemplateReference) TableName() string {
	return "call_card_template_user_references"
}

func (TemplateUser) TableName() string {
	return "call_card_template_users"
}
