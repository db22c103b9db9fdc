package models

// PropertyKey is a metadata catalog entry describing an attribute of an item type
type PropertyKey struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	ItemTypeID int    `gorm:"not null;index:idx_property_key,unique"`
	Name       string `gorm:"size:255;not null;index:idx_property_key,unique"`
	DataType   string `gorm:"size:32;not null"`
}

// ProductCategory links a product to one of its categories, in catalog order
type ProductCategory struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	GameTypeID   int    `gorm:"not null;index"`
	ProductID    string `gorm:"size:64;not null;index"`
	CategoryCode int    `gorm:"not null"`
	Ordering     int
}

// AppSetting is a per game type application setting
type AppSetting struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	GameTypeID int    `gorm:"not null;index:idx_app_setting,unique"`
	Key        string `gorm:"column:setting_key;size:128;not null;index:idx_app_setting,unique"`
	Value      string `gorm:"size:1024"`
}

func (PropertyKey) TableName() string {
	return "metadata_keys"
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

func (AppSetting) TableName() string {
	return "app_settings"
}
