package callcard

import "time"

// Attribute is one collectible value of an item.
type Attribute struct {
	IndexID       string     `json:"callCardRefUserIndexId,omitempty"`
	PropertyID    string     `json:"propertyId,omitempty"`
	PropertyName  string     `json:"propertyName"`
	PropertyType  DataType   `json:"propertyTypeId,omitempty"`
	Value         *string    `json:"propertyValue,omitempty"`
	RefValue      *string    `json:"refPropertyValue,omitempty"`
	DateSubmitted *time.Time `json:"dateSubmitted,omitempty"`
	Status        *int       `json:"status,omitempty"`
	Type          *Status    `json:"type,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
}

// HasValue reports whether the attribute carries a non-blank value.
func (a Attribute) HasValue() bool {
	return a.Value != nil && *a.Value != ""
}

// Item is a product or survey with its attributes.
type Item struct {
	ItemID     string      `json:"itemId"`
	ItemTypeID int         `json:"itemTypeId"`
	Attributes []Attribute `json:"attributes"`
	Mandatory  bool        `json:"mandatory"`
	CategoryID *int        `json:"categoryId,omitempty"`
}

// Action groups items of one item type.
type Action struct {
	ItemTypeID int    `json:"itemTypeId"`
	Mandatory  bool   `json:"mandatory"`
	Items      []Item `json:"actionItems"`
}

// KeyValue is a free-form pair attached to a RefUser view.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RefUserView is the client shape of a counterparty engagement.
type RefUserView struct {
	ID             string     `json:"callCardRefUserId,omitempty"`
	CounterpartyID string     `json:"refUserId"`
	SourceUserID   string     `json:"sourceUserId,omitempty"`
	Actions        []Action   `json:"actions"`
	Start          *time.Time `json:"startDate,omitempty"`
	End            *time.Time `json:"endDate,omitempty"`
	Mandatory      bool       `json:"mandatory"`
	Comment        string     `json:"comment,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
	Active         bool       `json:"active"`
	RefNo          string     `json:"refNo,omitempty"`
	Info           []KeyValue `json:"additionalRefUserInfo,omitempty"`
}

// Group collects RefUser views under a POS group id.
type Group struct {
	GroupID    int           `json:"groupId"`
	RefUsers   []RefUserView `json:"refUserIds"`
	TemplateID string        `json:"templateId,omitempty"`
}

// CardView is the nested card document exchanged with clients.
type CardView struct {
	ID            string     `json:"callCardId"`
	Start         *time.Time `json:"startDate,omitempty"`
	End           *time.Time `json:"endDate,omitempty"`
	Groups        []Group    `json:"groupIds"`
	Submitted     bool       `json:"submitted"`
	Comments      string     `json:"comments,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	TemplateID    string     `json:"templateId,omitempty"`
	InternalRefNo string     `json:"internalRefNo,omitempty"`
}

// Scope identifies the caller of an operation.
type Scope struct {
	UserID      string
	UserGroupID string
	GameTypeID  int
}

// ViewRequest asks for the current card of a user.
type ViewRequest struct {
	Scope
	CardID     string
	TemplateID string
}

// SyncRequest carries a submitted card. Card.ID is either a durable UUID or a client token.
type SyncRequest struct {
	Scope
	Card CardView
}

// CardSummary is the header of a card.
type CardSummary struct {
	ID          string     `json:"callCardId"`
	Start       time.Time  `json:"startDate"`
	End         *time.Time `json:"endDate,omitempty"`
	Submitted   bool       `json:"submitted"`
	Comments    string     `json:"comments,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	TemplateID  string     `json:"templateId"`
}

// ItemStatistic is the summed numeric value of a property for one item.
type ItemStatistic struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// StatisticsQuery filters the entries summed by ItemStatistics.
type StatisticsQuery struct {
	UserID   string
	Property string
	Types    StatusSet
	From     *time.Time
	To       *time.Time
}

// IndirectRequest submits progress on behalf of another user.
type IndirectRequest struct {
	Scope
	IndirectUserID string
	Card           CardView
}

// SimplifiedRefUser is the flat RefUser shape of a simplified card.
type SimplifiedRefUser struct {
	ID           string     `json:"callCardRefUserId"`
	IssuerUserID string     `json:"issuerUserId,omitempty"`
	RecipientID  string     `json:"recipientUserId"`
	Items        []Item     `json:"items"`
	DateCreated  *time.Time `json:"dateCreated,omitempty"`
	DateUpdated  *time.Time `json:"dateUpdated,omitempty"`
	Comment      string     `json:"comment,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	RefNo        string     `json:"refNo,omitempty"`
	Active       bool       `json:"active"`
}

// SimplifiedCard is a card exchanged as a flat RefUser list.
type SimplifiedCard struct {
	ID          string              `json:"callCardId"`
	DateCreated *time.Time          `json:"dateCreated,omitempty"`
	DateUpdated *time.Time          `json:"dateUpdated,omitempty"`
	End         *time.Time          `json:"endDate,omitempty"`
	RefUsers    []SimplifiedRefUser `json:"refUserIds"`
	Submitted   bool                `json:"submitted"`
}
