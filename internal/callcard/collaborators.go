package callcard

import (
	"context"
	"time"

	"github.com/localnerve/callcard/internal/models"
)

// Template is a template with its entries, POS assignments and references.
type Template struct {
	models.Template
	Entries    []models.TemplateEntry
	POS        []models.TemplatePOS
	References []models.TemplateReference
}

// TemplateQuery selects the templates assigned to a user.
type TemplateQuery struct {
	UserID      string
	UserGroupID string
	GameTypeID  int
}

// TemplateCatalog resolves templates.
type TemplateCatalog interface {
	// Template loads a template by id; a missing template wraps ErrNotFound.
	Template(ctx context.Context, id string) (*Template, error)
	// Assigned lists the active templates assigned to the user in the group and game type.
	Assigned(ctx context.Context, q TemplateQuery) ([]Template, error)
}

// CategoryResolver maps product ids to the first category code found in filter.
type CategoryResolver interface {
	CategoriesFor(ctx context.Context, gameTypeID int, filter []int) (map[string]int, error)
}

// DataType is the catalog type of a property value.
type DataType string

const (
	DataTypeInteger DataType = "integer"
	DataTypeString  DataType = "string"
	DataTypeBoolean DataType = "boolean"
)

// PropertyDef describes one catalog property.
type PropertyDef struct {
	ID       string
	DataType DataType
}

// Properties maps property names to their catalog definition.
type Properties map[string]PropertyDef

// PropertyCatalog resolves the properties of an item type.
type PropertyCatalog interface {
	PropertiesFor(ctx context.Context, itemTypeID int) (Properties, error)
}

// HistoryQuery selects history rows for the summarizer.
type HistoryQuery struct {
	CounterpartyIDs []string
	UserID          string
	Lookback        int
	Statuses        StatusSet
}

// HistoryRow is one historical value, index or order derived.
type HistoryRow struct {
	CounterpartyID string
	ItemID         string
	PropertyName   string
	Value          string
	SubmitDate     time.Time
}

// HistorySource returns the last Lookback rows per counterparty, item and property.
type HistorySource interface {
	IndexHistory(ctx context.Context, q HistoryQuery) ([]HistoryRow, error)
	OrderHistory(ctx context.Context, q HistoryQuery) ([]HistoryRow, error)
}

// OrderLine is one product line of an order.
type OrderLine struct {
	ItemID     string
	ItemTypeID int
	Quantity   int
	Price      *float64
}

// Order is an active order linked to a RefUser by RefItemID.
type Order struct {
	ID             string
	RefItemID      string
	CreatedBy      string
	FromUserID     string
	CounterpartyID string
	Status         int
	Comments       string
	DateCreated    time.Time
	DateSubmitted  *time.Time
	Lines          []OrderLine
}

// OrderLedger is the external order management system.
type OrderLedger interface {
	OrdersLinkedTo(ctx context.Context, refUserIDs []string) ([]Order, error)
	// CreateOrder stores the order header and returns its id. Lines are added separately.
	CreateOrder(ctx context.Context, o Order) (string, error)
	// CreateRevision supersedes orderID with a new revision and returns the revision id.
	CreateRevision(ctx context.Context, orderID string, o Order) (string, error)
	AddLine(ctx context.Context, orderID string, line OrderLine) error
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// GeoLookup resolves and records counterparty positions.
type GeoLookup interface {
	GeoFor(ctx context.Context, counterpartyIDs []string) (map[string]GeoPoint, error)
	CreateOrReuseAddress(ctx context.Context, counterpartyID string, p GeoPoint) (string, error)
}

// Settings returns raw application settings; an unset key yields "".
type Settings interface {
	Setting(ctx context.Context, gameTypeID int, key string) (string, error)
}

// Emitter is a fire-and-forget event sink.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// EntryFilter selects stored entries of a user for statistics.
type EntryFilter struct {
	UserID   string
	Property string
	Types    []int
	From     *time.Time
	To       *time.Time
}

// RefUserFilter selects RefUsers across the cards of one owner. Blank
// fields do not filter; From and To bound the RefUser start date.
type RefUserFilter struct {
	OwnerID        string
	SourceUserID   string
	CounterpartyID string
	From           *time.Time
	To             *time.Time
}

// Store is the card storage. Implementations return errors wrapping ErrNotFound for missing rows.
type Store interface {
	Card(ctx context.Context, id string) (*models.Card, error)
	// ActiveCards lists the user's active cards, most recent first.
	ActiveCards(ctx context.Context, userID string) ([]models.Card, error)
	CardsByInternalRef(ctx context.Context, userID, ref string) ([]models.Card, error)
	CreateCard(ctx context.Context, c *models.Card) error
	UpdateCard(ctx context.Context, c *models.Card) error
	// GroupCards pages over the cards whose template belongs to userGroupID,
	// most recent first, and returns the total count.
	GroupCards(ctx context.Context, userGroupID string, offset, limit int) ([]models.Card, int64, error)

	RefUser(ctx context.Context, id string) (*models.RefUser, error)
	RefUsers(ctx context.Context, cardID string) ([]models.RefUser, error)
	RefUsersByInternalRef(ctx context.Context, cardID, ref string) ([]models.RefUser, error)
	CreateRefUser(ctx context.Context, r *models.RefUser) error
	UpdateRefUser(ctx context.Context, r *models.RefUser) error
	// ListRefUsers pages over matching RefUsers ordered by start date then id.
	ListRefUsers(ctx context.Context, f RefUserFilter, offset, limit int) ([]models.RefUser, error)
	CountRefUsers(ctx context.Context, f RefUserFilter) (int64, error)

	// Entries returns the entries of the given RefUsers ordered by submit date.
	Entries(ctx context.Context, refUserIDs []string) ([]models.IndexEntry, error)
	ResetEntries(ctx context.Context, refUserID string) error
	AddEntries(ctx context.Context, entries []models.IndexEntry) error
	UserEntries(ctx context.Context, f EntryFilter) ([]models.IndexEntry, error)

	// Transaction runs fn against a store bound to one transaction. The
	// context handed to fn carries the transaction so that collaborators
	// backed by the same database join it.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
