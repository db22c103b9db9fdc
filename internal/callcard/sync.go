package callcard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/callcard/internal/models"
	"go.uber.org/zap"
)

// submission is one RefUser of a submitted card, whatever shape it came in.
type submission struct {
	ID             string
	CounterpartyID string
	SourceUserID   string
	Start          *time.Time
	End            *time.Time
	LastUpdated    *time.Time
	Comment        string
	Status         *Status
	RefNo          string
	Active         bool
	Info           []KeyValue
	Items          []Item
}

func fromView(v RefUserView) submission {
	var items []Item
	for _, a := range v.Actions {
		items = append(items, a.Items...)
	}
	return submission{
		ID:             v.ID,
		CounterpartyID: v.CounterpartyID,
		SourceUserID:   v.SourceUserID,
		Start:          v.Start,
		End:            v.End,
		LastUpdated:    v.LastUpdated,
		Comment:        v.Comment,
		Status:         v.Status,
		RefNo:          v.RefNo,
		Active:         v.Active,
		Info:           v.Info,
		Items:          items,
	}
}

// syncMode switches the parts of reconciliation a submission shape supports.
type syncMode struct {
	orders   bool
	visits   bool
	touchEnd bool
}

var fullSync = syncMode{orders: true, visits: true, touchEnd: true}

type unitKey struct {
	itemID string
	unit   int
}

// syncStats accumulates the statistics of one sync.
type syncStats struct {
	visits     map[Status]int
	visitOrder []Status
	quantities map[unitKey]int
	unitOrder  []unitKey
	staged     []*stagedOrder
}

func newSyncStats() *syncStats {
	return &syncStats{
		visits:     make(map[Status]int),
		quantities: make(map[unitKey]int),
	}
}

func (st *syncStats) addVisit(s Status) {
	if _, ok := st.visits[s]; !ok {
		st.visitOrder = append(st.visitOrder, s)
	}
	st.visits[s]++
}

func (st *syncStats) addQuantity(itemID string, unit, qty int) {
	k := unitKey{itemID: itemID, unit: unit}
	if _, ok := st.quantities[k]; !ok {
		st.unitOrder = append(st.unitOrder, k)
	}
	st.quantities[k] += qty
}

// statisticsEvents renders the statistics of a closed card.
func (st *syncStats) statisticsEvents(scope Scope, cardID string) []Event {
	var out []Event
	for _, s := range st.visitOrder {
		out = append(out, newEvent(EventStatistics, scope, "", 0, st.visits[s]).
			with(PropType, strconv.Itoa(int(s))))
	}
	for _, k := range st.unitOrder {
		out = append(out, newEvent(EventStatistics, scope, k.itemID, ItemTypeProduct, st.quantities[k]).
			with(PropUnitTypeID, strconv.Itoa(k.unit)).
			with(PropRefItemID, cardID))
	}
	return out
}

// Sync reconciles a submitted card with storage and returns its durable id.
// The card id is either a durable id or a client token; a token seen before
// resolves to the card created for it.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (string, error) {
	if err := validateScope(req.Scope, req.Card.ID); err != nil {
		return "", err
	}

	var subs []submission
	for _, g := range req.Card.Groups {
		for _, r := range g.RefUsers {
			subs = append(subs, fromView(r))
		}
	}

	resolve := func(ctx context.Context, tx Store) (*models.Card, error) {
		return s.resolveCard(ctx, tx, req.Scope, req.Card)
	}
	return s.syncCard(ctx, req.Scope, req.Card, subs, fullSync, resolve, nil)
}

func validateScope(scope Scope, cardID string) error {
	if strings.TrimSpace(scope.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(cardID) == "" {
		return fmt.Errorf("%w: card id is required", ErrValidation)
	}
	return nil
}

// syncCard runs one reconciliation unit in a transaction and emits its
// events once committed.
func (s *Service) syncCard(ctx context.Context, scope Scope, cv CardView, subs []submission, m syncMode,
	resolve func(context.Context, Store) (*models.Card, error), extra func(card *models.Card) []Event) (string, error) {
	var (
		card   *models.Card
		events []Event
	)
	err := s.store.Transaction(ctx, func(ctx context.Context, tx Store) error {
		var err error
		card, err = resolve(ctx, tx)
		if err != nil {
			return err
		}
		wasActive, oldComments := card.Active, card.Comments

		// A submitted card closes before its RefUsers are reconciled.
		if cv.Submitted {
			card.Active = false
		}

		st := newSyncStats()
		for _, sub := range subs {
			if err := s.reconcileRefUser(ctx, tx, scope, card, sub, m, st); err != nil {
				return err
			}
		}
		if err := s.commitOrders(ctx, st.staged); err != nil {
			return err
		}

		now := s.now()
		end, updated := now, now
		if cv.End != nil {
			end = *cv.End
		}
		if cv.LastUpdated != nil {
			updated = *cv.LastUpdated
		}
		card.EndDate = &end
		card.LastUpdated = &updated
		if c := strings.TrimSpace(cv.Comments); c != "" {
			card.Comments = c
		}
		if err := tx.UpdateCard(ctx, card); err != nil {
			return fmt.Errorf("update card %s: %w", card.ID, err)
		}
		if err := s.audit.Record(ctx, s.cardChanges(scope, wasActive, oldComments, card, len(subs))); err != nil {
			return fmt.Errorf("audit card %s: %w", card.ID, err)
		}

		if cv.Submitted {
			events = append(events, newEvent(EventUploaded, scope, card.ID, ItemTypeCard, 0))
		}
		if !card.Active {
			events = append(events, st.statisticsEvents(scope, card.ID)...)
		}
		if extra != nil {
			events = append(events, extra(card)...)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.emit(ctx, events...)
	return card.ID, nil
}

// resolveCard finds the card a submission targets, creating it for an
// unseen client token.
func (s *Service) resolveCard(ctx context.Context, tx Store, scope Scope, cv CardView) (*models.Card, error) {
	if isDurableID(cv.ID) {
		card, err := tx.Card(ctx, cv.ID)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", cv.ID, err)
		}
		if !strings.EqualFold(card.UserID, scope.UserID) {
			return nil, fmt.Errorf("%w: card %s is not owned by user %s", ErrOwnership, card.ID, scope.UserID)
		}
		if !card.Active {
			s.log.Warn("sync of a closed card", zap.String("cardId", card.ID), zap.String("userId", scope.UserID))
		}
		return card, nil
	}

	cards, err := tx.CardsByInternalRef(ctx, scope.UserID, cv.ID)
	if err != nil {
		return nil, fmt.Errorf("cards by internal ref %s: %w", cv.ID, err)
	}
	switch len(cards) {
	case 0:
	case 1:
		return &cards[0], nil
	default:
		return nil, fmt.Errorf("%w: internal ref %s matches %d cards", ErrConfiguration, cv.ID, len(cards))
	}

	templateID := ""
	if isDurableID(cv.TemplateID) {
		templateID = cv.TemplateID
	}
	tmpl, err := s.resolveTemplate(ctx, scope, templateID)
	if err != nil {
		return nil, err
	}
	card := &models.Card{
		ID:            s.newID(),
		TemplateID:    tmpl.ID,
		UserID:        scope.UserID,
		InternalRefNo: cv.ID,
		StartDate:     s.now(),
		Active:        true,
	}
	if cv.Start != nil {
		card.StartDate = *cv.Start
	}
	if err := tx.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	if err := s.recordCreate(ctx, scope, card.ID, card.TemplateID); err != nil {
		return nil, err
	}
	return card, nil
}

// resolveRefUser finds or creates the RefUser of a submission and clears
// its entries. It reports whether the RefUser existed.
func (s *Service) resolveRefUser(ctx context.Context, tx Store, card *models.Card, sub submission) (*models.RefUser, bool, error) {
	if isDurableID(sub.ID) {
		ref, err := tx.RefUser(ctx, sub.ID)
		if err != nil {
			return nil, false, fmt.Errorf("ref user %s: %w", sub.ID, err)
		}
		if !strings.EqualFold(ref.CardID, card.ID) {
			return nil, false, fmt.Errorf("%w: ref user %s belongs to card %s", ErrOwnership, ref.ID, ref.CardID)
		}
		if err := tx.ResetEntries(ctx, ref.ID); err != nil {
			return nil, false, fmt.Errorf("reset entries of %s: %w", ref.ID, err)
		}
		return ref, true, nil
	}

	refs, err := tx.RefUsersByInternalRef(ctx, card.ID, sub.ID)
	if err != nil {
		return nil, false, fmt.Errorf("ref users by internal ref %s: %w", sub.ID, err)
	}
	switch len(refs) {
	case 0:
	case 1:
		ref := &refs[0]
		if err := tx.ResetEntries(ctx, ref.ID); err != nil {
			return nil, false, fmt.Errorf("reset entries of %s: %w", ref.ID, err)
		}
		return ref, true, nil
	default:
		return nil, false, fmt.Errorf("%w: internal ref %s matches %d ref users", ErrConfiguration, sub.ID, len(refs))
	}

	status := int(*sub.Status)
	ref := &models.RefUser{
		ID:             s.newID(),
		CardID:         card.ID,
		CounterpartyID: sub.CounterpartyID,
		SourceUserID:   sub.SourceUserID,
		InternalRefNo:  sub.ID,
		RefNo:          sub.RefNo,
		StartDate:      sub.Start,
		EndDate:        sub.End,
		LastUpdated:    sub.LastUpdated,
		Comment:        sub.Comment,
		Status:         &status,
		Active:         sub.Active,
	}
	if ref.SourceUserID == "" {
		ref.SourceUserID = card.UserID
	}
	if err := tx.CreateRefUser(ctx, ref); err != nil {
		return nil, false, fmt.Errorf("create ref user: %w", err)
	}
	return ref, false, nil
}

func skipSubmission(sub submission) bool {
	return strings.TrimSpace(sub.ID) == "" ||
		strings.TrimSpace(sub.CounterpartyID) == "" ||
		strings.EqualFold(sub.CounterpartyID, DefaultCounterparty)
}

// reconcileRefUser replaces the stored progress of one RefUser.
func (s *Service) reconcileRefUser(ctx context.Context, tx Store, scope Scope, card *models.Card, sub submission, m syncMode, st *syncStats) error {
	if skipSubmission(sub) {
		return nil
	}
	if sub.Status == nil {
		return fmt.Errorf("%w: ref user %s has no status", ErrValidation, sub.ID)
	}

	ref, existed, err := s.resolveRefUser(ctx, tx, card, sub)
	if err != nil {
		return err
	}

	now := s.now()
	status := int(*sub.Status)
	ref.Status = &status
	ref.Active = sub.Active
	ref.Comment = strings.TrimSpace(sub.Comment)
	updated := now
	if sub.LastUpdated != nil {
		updated = *sub.LastUpdated
	}
	ref.LastUpdated = &updated
	if m.touchEnd {
		end := now
		if sub.End != nil {
			end = *sub.End
		}
		ref.EndDate = &end
	}
	if err := tx.UpdateRefUser(ctx, ref); err != nil {
		return fmt.Errorf("update ref user %s: %w", ref.ID, err)
	}

	s.recordPosition(ctx, sub)

	ordered := m.orders && s.policy.Order.Contains(*sub.Status)
	var staged *stagedOrder
	if ordered && existed {
		orders, err := s.orders.OrdersLinkedTo(ctx, []string{ref.ID})
		if err != nil {
			return fmt.Errorf("orders of ref user %s: %w", ref.ID, err)
		}
		switch len(orders) {
		case 0:
		case 1:
			staged = newStagedOrder(scope.UserID, ref, &orders[0], now)
		default:
			return fmt.Errorf("%w: ref user %s has %d active orders", ErrConfiguration, ref.ID, len(orders))
		}
	}

	var entries []models.IndexEntry
	for _, item := range sub.Items {
		sell := false
		qty, unit := 0, 0
		for _, attr := range item.Attributes {
			if strings.TrimSpace(attr.PropertyName) == "" || !attr.HasValue() {
				continue
			}
			value := *attr.Value
			if s.policy.Sell.ContainsPtr(attr.Type) {
				sell = true
			}
			if sell && attr.PropertyName == PropertySales {
				qty = signedQuantity(value, attr.Type)
			}
			if sell && attr.PropertyName == PropertySalesUnit {
				unit, _ = strconv.Atoi(strings.TrimSpace(value))
			}

			if ordered && attr.PropertyName == PropertySales {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return fmt.Errorf("%w: sales of item %s is not a quantity: %q", ErrValidation, item.ItemID, value)
				}
				if staged == nil {
					staged = newStagedOrder(scope.UserID, ref, nil, now)
				}
				staged.lines = append(staged.lines, OrderLine{
					ItemID:     item.ItemID,
					ItemTypeID: item.ItemTypeID,
					Quantity:   negateCredit(n, attr.Type),
					Price:      attr.Amount,
				})
				continue
			}

			entries = append(entries, s.newEntry(ref, item, attr, now))
		}
		if sell {
			st.addQuantity(item.ItemID, unit, qty)
		}
	}

	if len(entries) > 0 {
		if err := tx.AddEntries(ctx, entries); err != nil {
			return fmt.Errorf("add entries of %s: %w", ref.ID, err)
		}
	}
	if staged != nil {
		st.staged = append(st.staged, staged)
	}
	if m.visits {
		st.addVisit(*sub.Status)
	}
	return nil
}

func (s *Service) newEntry(ref *models.RefUser, item Item, attr Attribute, now time.Time) models.IndexEntry {
	e := models.IndexEntry{
		ID:            s.newID(),
		RefUserID:     ref.ID,
		ItemID:        item.ItemID,
		ItemTypeID:    item.ItemTypeID,
		PropertyName:  attr.PropertyName,
		PropertyValue: *attr.Value,
		Status:        defaultEntryStatus,
		SubmitDate:    now,
		Amount:        attr.Amount,
	}
	if attr.Status != nil {
		e.Status = *attr.Status
	}
	if attr.DateSubmitted != nil {
		e.SubmitDate = *attr.DateSubmitted
	}
	switch {
	case attr.Type != nil:
		e.Type = int(*attr.Type)
	case ref.Status != nil:
		e.Type = *ref.Status
	}
	return e
}

func negateCredit(n int, typ *Status) int {
	if n > 0 && typ != nil && *typ == StatusCreditSell {
		return -n
	}
	return n
}

func signedQuantity(value string, typ *Status) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return negateCredit(n, typ)
}

// recordPosition stores the position a client reported for a counterparty.
// Failures are logged.
func (s *Service) recordPosition(ctx context.Context, sub submission) {
	if s.geo == nil || len(sub.Info) == 0 {
		return
	}
	var lat, lon string
	for _, kv := range sub.Info {
		switch {
		case strings.EqualFold(kv.Key, KeyLatitude):
			lat = kv.Value
		case strings.EqualFold(kv.Key, KeyLongitude):
			lon = kv.Value
		}
	}
	if lat == "" || lon == "" {
		return
	}
	p, err := parsePoint(lat, lon)
	if err != nil {
		s.log.Warn("malformed position", zap.String("refUserId", sub.CounterpartyID), zap.Error(err))
		return
	}
	if _, err := s.geo.CreateOrReuseAddress(ctx, sub.CounterpartyID, p); err != nil {
		s.log.Warn("address update failed", zap.String("refUserId", sub.CounterpartyID), zap.Error(err))
	}
}

func parsePoint(lat, lon string) (GeoPoint, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	return GeoPoint{Latitude: la, Longitude: lo}, nil
}

// commitOrders writes the staged orders and revisions through the ledger.
func (s *Service) commitOrders(ctx context.Context, staged []*stagedOrder) error {
	for _, so := range staged {
		if !so.needsWrite() {
			continue
		}
		var (
			id  string
			err error
		)
		if so.existing == nil {
			id, err = s.orders.CreateOrder(ctx, so.header)
		} else {
			id, err = s.orders.CreateRevision(ctx, so.existing.ID, so.header)
		}
		if err != nil {
			return fmt.Errorf("order for ref user %s: %w", so.header.RefItemID, err)
		}
		for _, line := range so.lines {
			if err := s.orders.AddLine(ctx, id, line); err != nil {
				return fmt.Errorf("order line %s of %s: %w", line.ItemID, id, err)
			}
		}
		s.log.Debug("order written", zap.String("orderId", id), zap.String("refUserId", so.header.RefItemID),
			zap.Bool("revision", so.existing != nil), zap.Int("lines", len(so.lines)))
	}
	return nil
}
