package callcard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localnerve/callcard/internal/models"
)

// memStore is an in-memory Store. Transactions do not roll back.
type memStore struct {
	cards    []models.Card
	refUsers []models.RefUser
	entries  []models.IndexEntry
	// templateGroups maps template ids to user group ids.
	templateGroups map[string]string
}

func (m *memStore) Card(_ context.Context, id string) (*models.Card, error) {
	for i := range m.cards {
		if m.cards[i].ID == id {
			c := m.cards[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("card %s: %w", id, ErrNotFound)
}

func (m *memStore) ActiveCards(_ context.Context, userID string) ([]models.Card, error) {
	var out []models.Card
	for _, c := range m.cards {
		if c.Active && c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *memStore) CardsByInternalRef(_ context.Context, userID, ref string) ([]models.Card, error) {
	var out []models.Card
	for _, c := range m.cards {
		if c.UserID == userID && c.InternalRefNo == ref {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreateCard(_ context.Context, c *models.Card) error {
	m.cards = append(m.cards, *c)
	return nil
}

func (m *memStore) UpdateCard(_ context.Context, c *models.Card) error {
	for i := range m.cards {
		if m.cards[i].ID == c.ID {
			m.cards[i] = *c
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) GroupCards(_ context.Context, userGroupID string, offset, limit int) ([]models.Card, int64, error) {
	var all []models.Card
	for _, c := range m.cards {
		if m.templateGroups[c.TemplateID] == userGroupID {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })
	return page(all, offset, limit), int64(len(all)), nil
}

func page[T any](s []T, offset, limit int) []T {
	if offset >= len(s) {
		return nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end]
}

func (m *memStore) matchRefUsers(f RefUserFilter) []models.RefUser {
	owned := make(map[string]bool)
	for _, c := range m.cards {
		if c.UserID == f.OwnerID {
			owned[c.ID] = true
		}
	}
	var out []models.RefUser
	for _, r := range m.refUsers {
		switch {
		case !owned[r.CardID]:
		case f.SourceUserID != "" && r.SourceUserID != f.SourceUserID:
		case f.CounterpartyID != "" && r.CounterpartyID != f.CounterpartyID:
		case f.From != nil && (r.StartDate == nil || r.StartDate.Before(*f.From)):
		case f.To != nil && (r.StartDate == nil || r.StartDate.After(*f.To)):
		default:
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartDate, out[j].StartDate
		if a != nil && b != nil && !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListRefUsers(_ context.Context, f RefUserFilter, offset, limit int) ([]models.RefUser, error) {
	return page(m.matchRefUsers(f), offset, limit), nil
}

func (m *memStore) CountRefUsers(_ context.Context, f RefUserFilter) (int64, error) {
	return int64(len(m.matchRefUsers(f))), nil
}

func (m *memStore) RefUser(_ context.Context, id string) (*models.RefUser, error) {
	for i := range m.refUsers {
		if m.refUsers[i].ID == id {
			r := m.refUsers[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("ref user %s: %w", id, ErrNotFound)
}

func (m *memStore) RefUsers(_ context.Context, cardID string) ([]models.RefUser, error) {
	var out []models.RefUser
	for _, r := range m.refUsers {
		if r.CardID == cardID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) RefUsersByInternalRef(_ context.Context, cardID, ref string) ([]models.RefUser, error) {
	var out []models.RefUser
	for _, r := range m.refUsers {
		if r.CardID == cardID && r.InternalRefNo == ref {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) CreateRefUser(_ context.Context, r *models.RefUser) error {
	m.refUsers = append(m.refUsers, *r)
	return nil
}

func (m *memStore) UpdateRefUser(_ context.Context, r *models.RefUser) error {
	for i := range m.refUsers {
		if m.refUsers[i].ID == r.ID {
			m.refUsers[i] = *r
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) Entries(_ context.Context, ids []string) ([]models.IndexEntry, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.IndexEntry
	for _, e := range m.entries {
		if want[e.RefUserID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ResetEntries(_ context.Context, refUserID string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.RefUserID != refUserID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memStore) AddEntries(_ context.Context, entries []models.IndexEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memStore) UserEntries(_ context.Context, f EntryFilter) ([]models.IndexEntry, error) {
	cards := make(map[string]bool)
	for _, c := range m.cards {
		if c.UserID == f.UserID {
			cards[c.ID] = true
		}
	}
	refs := make(map[string]bool)
	for _, r := range m.refUsers {
		if cards[r.CardID] {
			refs[r.ID] = true
		}
	}
	var out []models.IndexEntry
	for _, e := range m.entries {
		if !refs[e.RefUserID] || e.PropertyName != f.Property {
			continue
		}
		if len(f.Types) > 0 && !containsInt(f.Types, e.Type) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func (m *memStore) Transaction(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, m)
}

func (m *memStore) entriesOf(refUserID string) []models.IndexEntry {
	var out []models.IndexEntry
	for _, e := range m.entries {
		if e.RefUserID == refUserID {
			out = append(out, e)
		}
	}
	return out
}

type memAudit struct {
	txs  []CardTransaction
	last TransactionFilter
}

func (m *memAudit) Record(_ context.Context, txs []CardTransaction) error {
	m.txs = append(m.txs, txs...)
	return nil
}

func (m *memAudit) Transactions(_ context.Context, f TransactionFilter, offset, limit int) ([]CardTransaction, int64, error) {
	m.last = f
	var all []CardTransaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		tx := m.txs[i]
		if (f.CardID == "" || tx.CardID == f.CardID) && (f.UserID == "" || tx.UserID == f.UserID) && (f.Type == "" || tx.Type == f.Type) {
			all = append(all, tx)
		}
	}
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *memAudit) types(cardID string) []TransactionType {
	var out []TransactionType
	for _, tx := range m.txs {
		if tx.CardID == cardID {
			out = append(out, tx.Type)
		}
	}
	return out
}

type fakeTemplates struct {
	byID     map[string]*Template
	assigned []Template
}

func (f *fakeTemplates) Template(_ context.Context, id string) (*Template, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	for i := range f.assigned {
		if f.assigned[i].ID == id {
			return &f.assigned[i], nil
		}
	}
	return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
}

func (f *fakeTemplates) Assigned(context.Context, TemplateQuery) ([]Template, error) {
	return f.assigned, nil
}

type fakeProperties Properties

func (f fakeProperties) PropertiesFor(context.Context, int) (Properties, error) {
	return Properties(f), nil
}

type fakeCategories map[string]int

func (f fakeCategories) CategoriesFor(context.Context, int, []int) (map[string]int, error) {
	return f, nil
}

type fakeSettings map[string]string

func (f fakeSettings) Setting(_ context.Context, _ int, key string) (string, error) {
	return f[key], nil
}

type fakeHistory struct {
	index, orders []HistoryRow
	calls         int
	last          HistoryQuery
}

func (f *fakeHistory) IndexHistory(_ context.Context, q HistoryQuery) ([]HistoryRow, error) {
	f.calls++
	f.last = q
	return f.index, nil
}

func (f *fakeHistory) OrderHistory(context.Context, HistoryQuery) ([]HistoryRow, error) {
	return f.orders, nil
}

type ledgerCall struct {
	kind    string
	orderID string
	order   Order
	line    OrderLine
}

type fakeLedger struct {
	orders []Order
	calls  []ledgerCall
	seq    int
}

func (f *fakeLedger) OrdersLinkedTo(_ context.Context, ids []string) ([]Order, error) {
	var out []Order
	for _, o := range f.orders {
		for _, id := range ids {
			if strings.EqualFold(o.RefItemID, id) {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) CreateOrder(_ context.Context, o Order) (string, error) {
	f.seq++
	id := fmt.Sprintf("order-%d", f.seq)
	f.calls = append(f.calls, ledgerCall{kind: "create", orderID: id, order: o})
	return id, nil
}

func (f *fakeLedger) CreateRevision(_ context.Context, orderID string, o Order) (string, error) {
	f.seq++
	id := fmt.Sprintf("order-%d", f.seq)
	f.calls = append(f.calls, ledgerCall{kind: "revision", orderID: orderID, order: o})
	return id, nil
}

func (f *fakeLedger) AddLine(_ context.Context, orderID string, line OrderLine) error {
	f.calls = append(f.calls, ledgerCall{kind: "line", orderID: orderID, line: line})
	return nil
}

func (f *fakeLedger) kinds() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.kind)
	}
	return out
}

type fakeGeo struct {
	points   map[string]GeoPoint
	recorded map[string]GeoPoint
	lookups  int
}

func (f *fakeGeo) GeoFor(_ context.Context, ids []string) (map[string]GeoPoint, error) {
	f.lookups++
	out := make(map[string]GeoPoint)
	for _, id := range ids {
		if p, ok := f.points[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeGeo) CreateOrReuseAddress(_ context.Context, id string, p GeoPoint) (string, error) {
	if f.recorded == nil {
		f.recorded = make(map[string]GeoPoint)
	}
	f.recorded[id] = p
	return "address-" + id, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// fixture wires a Service over fakes with a fixed clock and sequential ids.
type fixture struct {
	store    *memStore
	tmpl     *fakeTemplates
	history  *fakeHistory
	ledger   *fakeLedger
	geo      *fakeGeo
	settings fakeSettings
	events   *recorder
	audit    *memAudit
	svc      *Service
	now      time.Time
}

var testProperties = fakeProperties{
	PropertySales:        {ID: "key-sales", DataType: DataTypeInteger},
	PropertySalesUnit:    {ID: "key-unit", DataType: DataTypeInteger},
	"CallCardIndex.note": {ID: "key-note", DataType: DataTypeString},
	"CallCardIndex.ok":   {ID: "key-ok", DataType: DataTypeBoolean},
}

const (
	testUser     = "user-1"
	testTemplate = "7a1c2b86-0f4e-4c61-9d2e-3a5b6c7d8e90"
)

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		store:    &memStore{},
		tmpl:     &fakeTemplates{},
		history:  &fakeHistory{},
		ledger:   &fakeLedger{},
		geo:      &fakeGeo{},
		settings: fakeSettings{},
		events:   &recorder{},
		audit:    &memAudit{},
		now:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
		}),
	}
	f.svc = New(Deps{
		Store:      f.store,
		Templates:  f.tmpl,
		Categories: fakeCategories{"p1": 11},
		Properties: testProperties,
		History:    f.history,
		Orders:     f.ledger,
		Geo:        f.geo,
		Settings:   f.settings,
		Events:     f.events,
		Audit:      f.audit,
	}, append(base, opts...)...)
	return f
}

func (f *fixture) assign(t Template) {
	f.tmpl.assigned = append(f.tmpl.assigned, t)
}

func ptr[T any](v T) *T {
	return &v
}

func scope() Scope {
	return Scope{UserID: testUser, UserGroupID: "group-1", GameTypeID: 7}
}
