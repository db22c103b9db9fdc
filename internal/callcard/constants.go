package callcard

// Item types
const (
	ItemTypeCard        = 1000
	ItemTypeCardIndex   = 1001
	ItemTypeProduct     = 1002
	ItemTypeQuiz        = 1003
	ItemTypeCardRefUser = 1005
)

// Reserved group keys
const (
	StockDataGroup  = -1
	UnassignedGroup = 0
)

// DefaultCounterparty is the synthetic counterparty holding stock roll-ups.
const DefaultCounterparty = "DefaultRefUserID"

// Well-known property names
const (
	PropertySales     = "CallCardIndex.sales"
	PropertySalesUnit = "CallCardIndex.salesUnit"
	KeyLatitude       = "latitude"
	KeyLongitude      = "longitude"
)

// Application setting keys
const (
	SettingPreviousVisits = "PREVIOUS_VISITS_SUMMARY"
	SettingIncludeGeo     = "INCLUDE_VISITS_GEO_INFO"
	SettingCategories     = "PRODUCT_TYPE_CATEGORIES"
)

// Default IndexEntry status when the client leaves it unset.
const defaultEntryStatus = 1

// OrderStatusSubmitted is the status of orders created from a sync.
const OrderStatusSubmitted = 2
