package callcard

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// EventKind enumerates emitted domain events.
type EventKind int

const (
	EventCreate EventKind = iota + 1
	EventUpdate
	EventDelete
	EventSubmit
	EventComplete
	EventCancel
	EventStatistics
	EventNoDistinctTemplate
	EventUploaded
	EventIndirectAction
	EventDownloaded
)

var eventNames = map[EventKind]string{
	EventCreate:             "CREATE",
	EventUpdate:             "UPDATE",
	EventDelete:             "DELETE",
	EventSubmit:             "SUBMIT",
	EventComplete:           "COMPLETE",
	EventCancel:             "CANCEL",
	EventStatistics:         "CALL_CARD_STATISTICS",
	EventNoDistinctTemplate: "NO_DISTINCT_CALL_CARD_TEMPLATE",
	EventUploaded:           "CALL_CARD_UPLOADED",
	EventIndirectAction:     "CALL_CARD_INDIRECT_ACTION",
	EventDownloaded:         "CALL_CARD_DOWNLOADED",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "EVENT(" + strconv.Itoa(int(k)) + ")"
}

// Event property keys
const (
	PropStatus     = "status"
	PropItemID     = "itemId"
	PropItemTypeID = "itemTypeId"
	PropQuantity   = "quantity"
	PropType       = "type"
	PropUnitTypeID = "unitTypeId"
	PropRefItemID  = "refItemId"
	PropFromUserID = "fromUserId"
	PropDate       = "date"
)

// Event is a domain notification handed to the Emitter.
type Event struct {
	Kind       EventKind
	UserID     string
	GameTypeID int
	Timestamp  time.Time
	Properties map[string]string
}

func newEvent(kind EventKind, scope Scope, itemID string, itemTypeID, quantity int) Event {
	e := Event{
		Kind:       kind,
		UserID:     scope.UserID,
		GameTypeID: scope.GameTypeID,
		Properties: make(map[string]string),
	}
	if itemID != "" {
		e.Properties[PropItemID] = itemID
	}
	if itemTypeID != 0 {
		e.Properties[PropItemTypeID] = strconv.Itoa(itemTypeID)
	}
	if quantity != 0 {
		e.Properties[PropQuantity] = strconv.Itoa(quantity)
	}
	return e
}

func (e Event) with(key, value string) Event {
	e.Properties[key] = value
	return e
}

// Encode renders the properties as sorted "key=value\n" lines.
func (e Event) Encode() string {
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Properties[k])
		b.WriteByte('\n')
	}
	return b.String()
}
