package callcard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/localnerve/callcard/internal/models"
	"go.uber.org/zap"
)

// View returns the caller's current card: the card named by req.CardID, or
// the most recent active card, or a new card created from the resolved
// template when the user has none.
func (s *Service) View(ctx context.Context, req ViewRequest) (*CardView, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	vs := s.loadSettings(ctx, req.GameTypeID)
	props, err := s.properties.PropertiesFor(ctx, ItemTypeCardIndex)
	if err != nil {
		return nil, fmt.Errorf("property catalog: %w", err)
	}

	card, err := s.currentCard(ctx, req)
	if err != nil {
		return nil, err
	}

	fresh := card == nil
	var tmpl *Template
	if fresh {
		tmpl, err = s.resolveTemplate(ctx, req.Scope, req.TemplateID)
		if err != nil {
			return nil, err
		}
		card = &models.Card{
			ID:         s.newID(),
			TemplateID: tmpl.ID,
			UserID:     req.UserID,
			StartDate:  s.now(),
			Active:     true,
		}
		if err := s.store.CreateCard(ctx, card); err != nil {
			return nil, fmt.Errorf("create card: %w", err)
		}
		if err := s.recordCreate(ctx, req.Scope, card.ID, tmpl.ID); err != nil {
			s.log.Warn("card audit failed", zap.String("cardId", card.ID), zap.Error(err))
		}
		s.log.Info("created card", zap.String("cardId", card.ID), zap.String("templateId", tmpl.ID), zap.String("userId", req.UserID))
	} else {
		tmpl, err = s.templates.Template(ctx, card.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("template %s of card %s: %w", card.TemplateID, card.ID, err)
		}
	}

	a := &assembler{
		svc:      s,
		scope:    req.Scope,
		props:    props,
		cats:     s.categoriesFor(ctx, req.GameTypeID, vs.categories),
		settings: vs,
	}
	groups := a.templateGroups(ctx, tmpl)

	var view *CardView
	if fresh {
		start := card.StartDate
		view = &CardView{ID: card.ID, Start: &start, Groups: groups, TemplateID: card.TemplateID}
	} else {
		extra, err := a.overlayProgress(ctx, card, groups)
		if err != nil {
			return nil, err
		}
		if extra != nil {
			groups = append(groups, *extra)
		}
		view = cardView(card, groups)
	}

	s.emit(ctx, newEvent(EventDownloaded, req.Scope, card.ID, ItemTypeCard, 0))
	return view, nil
}

func cardView(c *models.Card, groups []Group) *CardView {
	start := c.StartDate
	return &CardView{
		ID:            c.ID,
		Start:         &start,
		End:           c.EndDate,
		Groups:        groups,
		Submitted:     !c.Active,
		Comments:      c.Comments,
		LastUpdated:   c.LastUpdated,
		TemplateID:    c.TemplateID,
		InternalRefNo: c.InternalRefNo,
	}
}

// currentCard loads the requested card or the most recent active one. A nil
// card without error means the user has no active card.
func (s *Service) currentCard(ctx context.Context, req ViewRequest) (*models.Card, error) {
	if req.CardID != "" {
		c, err := s.store.Card(ctx, req.CardID)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", req.CardID, err)
		}
		if !strings.EqualFold(c.UserID, req.UserID) {
			return nil, fmt.Errorf("%w: card %s is not owned by user %s", ErrOwnership, c.ID, req.UserID)
		}
		return c, nil
	}

	cards, err := s.store.ActiveCards(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("active cards: %w", err)
	}
	switch len(cards) {
	case 0:
		return nil, nil
	case 1:
	default:
		s.log.Warn("multiple active cards, using the most recent", zap.String("userId", req.UserID), zap.Int("count", len(cards)))
	}
	return &cards[0], nil
}

// assembler carries the per-call state of a view assembly.
type assembler struct {
	svc      *Service
	scope    Scope
	props    Properties
	cats     map[string]int
	settings viewSettings
}

func (a *assembler) category(itemID string, itemTypeID int) *int {
	if itemTypeID != ItemTypeProduct || a.cats == nil {
		return nil
	}
	if c, ok := a.cats[itemID]; ok {
		return &c
	}
	return nil
}

func (a *assembler) placeholder(name string) Attribute {
	def := a.props[name]
	sell := StatusSell
	return Attribute{
		PropertyID:   def.ID,
		PropertyName: name,
		PropertyType: def.DataType,
		Type:         &sell,
	}
}

// templateItems turns the template entries into items ordered by their
// ordering field. It also returns the item type of the last entry kept.
func (a *assembler) templateItems(t *Template) ([]Item, int) {
	entries := make([]models.TemplateEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Ordering < entries[j].Ordering
	})

	var items []Item
	itemType := 0
	for _, e := range entries {
		names := splitProperties(e.Properties)
		if len(names) == 0 {
			continue
		}
		attrs := make([]Attribute, 0, len(names))
		for _, n := range names {
			attrs = append(attrs, a.placeholder(n))
		}
		itemType = e.ItemTypeID
		items = append(items, Item{
			ItemID:     e.ItemID,
			ItemTypeID: e.ItemTypeID,
			Attributes: attrs,
			CategoryID: a.category(e.ItemID, e.ItemTypeID),
		})
	}
	return items, itemType
}

func splitProperties(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// references groups the template references by counterparty.
func (a *assembler) references(t *Template) map[string][]Item {
	out := make(map[string][]Item)
	for _, r := range t.References {
		out[r.CounterpartyID] = append(out[r.CounterpartyID], Item{
			ItemID:     r.ItemID,
			ItemTypeID: r.ItemTypeID,
			Mandatory:  r.Mandatory,
			CategoryID: a.category(r.ItemID, r.ItemTypeID),
		})
	}
	return out
}

func mandatorySurvey(items []Item) bool {
	for _, it := range items {
		if it.ItemTypeID == ItemTypeQuiz && it.Mandatory {
			return true
		}
	}
	return false
}

// summaries computes the history summaries of counterparties in one batch.
// Failures are logged and yield no summaries.
func (a *assembler) summaries(ctx context.Context, counterparties []string) *AttributeBag {
	if a.settings.lookback <= 0 || len(counterparties) == 0 || a.svc.history == nil {
		return NewAttributeBag()
	}
	bag, err := Summarize(ctx, a.svc.history, a.svc.policy, SummaryRequest{
		CounterpartyIDs: counterparties,
		UserID:          a.scope.UserID,
		Lookback:        a.settings.lookback,
		Properties:      a.props,
	})
	if err != nil {
		a.svc.log.Warn("history summary failed", zap.String("userId", a.scope.UserID), zap.Error(err))
		return NewAttributeBag()
	}
	return bag
}

// geoInfo looks up positions of counterparties in one batch and renders them
// as key-values. Failures are logged and yield no info.
func (a *assembler) geoInfo(ctx context.Context, counterparties []string) map[string][]KeyValue {
	if !a.settings.geo || len(counterparties) == 0 || a.svc.geo == nil {
		return nil
	}
	points, err := a.svc.geo.GeoFor(ctx, counterparties)
	if err != nil {
		a.svc.log.Warn("geo lookup failed", zap.Error(err))
		return nil
	}
	out := make(map[string][]KeyValue, len(points))
	for id, p := range points {
		out[id] = []KeyValue{
			{Key: KeyLatitude, Value: strconv.FormatFloat(p.Latitude, 'f', -1, 64)},
			{Key: KeyLongitude, Value: strconv.FormatFloat(p.Longitude, 'f', -1, 64)},
		}
	}
	return out
}

// cloneItems deep copies items, filling RefValue from the summaries of owner.
func cloneItems(items []Item, summaries *AttributeBag, owner string) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Attributes == nil {
			continue
		}
		out[i].Attributes = make([]Attribute, len(it.Attributes))
		for j, attr := range it.Attributes {
			if sum, ok := summaries.Get(BagKey{Owner: owner, ItemID: it.ItemID, Property: attr.PropertyName}); ok && sum.RefValue != nil {
				attr.RefValue = sum.RefValue
			}
			out[i].Attributes[j] = attr
		}
	}
	return out
}

// templateGroups builds one RefUser view per POS assignment, grouped by the
// assignment group id in order of first appearance.
func (a *assembler) templateGroups(ctx context.Context, t *Template) []Group {
	groups := []Group{}
	if len(t.POS) == 0 {
		return groups
	}

	items, itemType := a.templateItems(t)
	refs := a.references(t)

	var counterparties []string
	placed := make(map[string]bool)
	for _, pos := range t.POS {
		if !placed[pos.CounterpartyID] {
			placed[pos.CounterpartyID] = true
			counterparties = append(counterparties, pos.CounterpartyID)
		}
	}
	summaries := a.summaries(ctx, counterparties)
	geo := a.geoInfo(ctx, counterparties)

	index := make(map[int]int)
	placed = make(map[string]bool)
	for _, pos := range t.POS {
		if placed[pos.CounterpartyID] {
			continue
		}
		placed[pos.CounterpartyID] = true

		sell := StatusSell
		view := RefUserView{
			CounterpartyID: pos.CounterpartyID,
			SourceUserID:   a.scope.UserID,
			Actions:        []Action{},
			Mandatory:      pos.Mandatory,
			Status:         &sell,
			Active:         true,
			Info:           geo[pos.CounterpartyID],
		}
		if len(items) > 0 {
			view.Actions = append(view.Actions, Action{
				ItemTypeID: itemType,
				Mandatory:  pos.Mandatory,
				Items:      cloneItems(items, summaries, pos.CounterpartyID),
			})
		}
		if r := refs[pos.CounterpartyID]; len(r) > 0 {
			view.Actions = append(view.Actions, Action{
				ItemTypeID: r[0].ItemTypeID,
				Mandatory:  mandatorySurvey(r),
				Items:      cloneItems(r, summaries, pos.CounterpartyID),
			})
		}

		gid := UnassignedGroup
		if pos.GroupID != nil {
			gid = *pos.GroupID
		}
		i, ok := index[gid]
		if !ok {
			i = len(groups)
			index[gid] = i
			groups = append(groups, Group{GroupID: gid, TemplateID: t.ID})
		}
		groups[i].RefUsers = append(groups[i].RefUsers, view)
	}
	return groups
}

// findViews returns every view of counterparty across groups.
func findViews(groups []Group, counterparty string) []*RefUserView {
	var out []*RefUserView
	for gi := range groups {
		for ri := range groups[gi].RefUsers {
			v := &groups[gi].RefUsers[ri]
			if strings.EqualFold(v.CounterpartyID, counterparty) {
				out = append(out, v)
			}
		}
	}
	return out
}

// findStored returns the first stored entry for the item and property.
func findStored(entries []models.IndexEntry, itemTypeID int, itemID, property string) (models.IndexEntry, bool) {
	for _, e := range entries {
		if e.ItemTypeID == itemTypeID && strings.EqualFold(e.ItemID, itemID) && strings.EqualFold(e.PropertyName, property) {
			return e, true
		}
	}
	return models.IndexEntry{}, false
}

// entryAttribute renders a stored entry as an attribute.
func (a *assembler) entryAttribute(e models.IndexEntry) Attribute {
	def := a.props[e.PropertyName]
	value := e.PropertyValue
	status := e.Status
	typ := Status(e.Type)
	submitted := e.SubmitDate
	return Attribute{
		IndexID:       e.ID,
		PropertyID:    def.ID,
		PropertyName:  e.PropertyName,
		PropertyType:  def.DataType,
		Value:         &value,
		DateSubmitted: &submitted,
		Status:        &status,
		Type:          &typ,
		Amount:        e.Amount,
	}
}

func statusOf(v *int) *Status {
	if v == nil {
		return nil
	}
	st := Status(*v)
	return &st
}

// progress holds the stored state of a card during overlay.
type progress struct {
	refUsers []models.RefUser
	entries  map[string][]models.IndexEntry
	orders   *AttributeBag
}

// orderValues fetches the order-derived values of the card once.
func (a *assembler) orderValues(ctx context.Context, p *progress) (*AttributeBag, error) {
	if p.orders != nil {
		return p.orders, nil
	}
	ids := make([]string, len(p.refUsers))
	for i, r := range p.refUsers {
		ids[i] = r.ID
	}
	orders, err := a.svc.orders.OrdersLinkedTo(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("orders linked to card: %w", err)
	}
	p.orders = OrderAttributes(orders, a.props)
	return p.orders, nil
}

// overlayProgress applies the stored RefUsers of card onto the template
// groups and returns the group of RefUsers the template does not cover.
func (a *assembler) overlayProgress(ctx context.Context, card *models.Card, groups []Group) (*Group, error) {
	refUsers, err := a.svc.store.RefUsers(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("ref users of card %s: %w", card.ID, err)
	}
	if len(refUsers) == 0 {
		return nil, nil
	}

	ids := make([]string, len(refUsers))
	for i, r := range refUsers {
		ids[i] = r.ID
	}
	rows, err := a.svc.store.Entries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("entries of card %s: %w", card.ID, err)
	}
	p := &progress{refUsers: refUsers, entries: make(map[string][]models.IndexEntry)}
	for _, e := range rows {
		p.entries[e.RefUserID] = append(p.entries[e.RefUserID], e)
	}

	policy := a.svc.policy
	// A stored RefUser overlays every template view of its counterparty; a
	// later RefUser of the same counterparty overwrites what it stored.
	var additional []models.RefUser
	for i := range refUsers {
		r := &refUsers[i]
		if policy.Unscheduled.ContainsPtr(statusOf(r.Status)) {
			additional = append(additional, *r)
			continue
		}
		views := findViews(groups, r.CounterpartyID)
		if len(views) == 0 {
			additional = append(additional, *r)
			continue
		}
		for _, view := range views {
			if err := a.applyStored(ctx, p, r, view); err != nil {
				return nil, err
			}
		}
	}

	if len(additional) == 0 {
		return nil, nil
	}
	return a.additionalGroup(ctx, p, additional)
}

// applyStored copies a stored RefUser and its entries onto a template view.
func (a *assembler) applyStored(ctx context.Context, p *progress, r *models.RefUser, view *RefUserView) error {
	view.ID = r.ID
	view.Start = r.StartDate
	view.End = r.EndDate
	view.Comment = r.Comment
	view.Status = statusOf(r.Status)
	view.LastUpdated = r.LastUpdated
	view.Active = r.Active
	view.RefNo = r.RefNo

	var orders *AttributeBag
	if a.svc.policy.Order.ContainsPtr(view.Status) {
		var err error
		if orders, err = a.orderValues(ctx, p); err != nil {
			return err
		}
	}

	entries := p.entries[r.ID]
	bag := NewAttributeBag()
	for ai := range view.Actions {
		action := &view.Actions[ai]
		for ii := range action.Items {
			item := &action.Items[ii]
			for ti := range item.Attributes {
				attr := &item.Attributes[ti]
				k := BagKey{Owner: r.ID, ItemID: item.ItemID, Property: attr.PropertyName}
				if e, ok := findStored(entries, item.ItemTypeID, item.ItemID, attr.PropertyName); ok {
					bag.Put(SourceStored, k, a.entryAttribute(e))
					if view.Status == nil {
						view.Status = statusOf(&e.Type)
					}
				}
				if orders != nil && attr.PropertyName == PropertySales {
					if o, ok := orders.Get(k); ok {
						bag.Put(SourceOrder, k, o)
					}
				}
				bag.Fill(k, attr)
			}
		}
	}
	return nil
}

// additionalGroup builds the STOCK_DATA_GROUP group. Stock RefUsers are
// summed into the default counterparty bucket; every other RefUser keeps a
// bucket of its own carrying summaries and order values.
func (a *assembler) additionalGroup(ctx context.Context, p *progress, refUsers []models.RefUser) (*Group, error) {
	policy := a.svc.policy

	var visits []string
	seen := make(map[string]bool)
	for _, r := range refUsers {
		if policy.Visit.ContainsPtr(statusOf(r.Status)) && !seen[r.CounterpartyID] {
			seen[r.CounterpartyID] = true
			visits = append(visits, r.CounterpartyID)
		}
	}
	summaries := a.summaries(ctx, visits)
	geo := a.geoInfo(ctx, visits)

	stock := NewAttributeBag()
	var views []RefUserView
	for i := range refUsers {
		r := &refUsers[i]
		status := statusOf(r.Status)
		entries := p.entries[r.ID]

		if policy.Stock.ContainsPtr(status) {
			for _, e := range entries {
				attr := a.entryAttribute(e)
				attr.IndexID = ""
				stock.Sum(SourceStored, BagKey{Owner: DefaultCounterparty, ItemID: e.ItemID, Property: e.PropertyName}, attr)
			}
			continue
		}

		bag := NewAttributeBag()
		for _, e := range entries {
			k := BagKey{Owner: r.ID, ItemID: e.ItemID, Property: e.PropertyName}
			bag.Put(SourceStored, k, a.entryAttribute(e))
			if sum, ok := summaries.Get(BagKey{Owner: r.CounterpartyID, ItemID: e.ItemID, Property: e.PropertyName}); ok {
				bag.Put(SourceSummary, k, sum)
			}
		}
		if policy.Order.ContainsPtr(status) {
			orders, err := a.orderValues(ctx, p)
			if err != nil {
				return nil, err
			}
			for _, k := range orders.Keys(r.ID) {
				if o, ok := orders.Get(k); ok {
					bag.Put(SourceOrder, k, o)
				}
			}
		}
		if bag.Len() == 0 {
			continue
		}

		views = append(views, RefUserView{
			ID:             r.ID,
			CounterpartyID: r.CounterpartyID,
			SourceUserID:   a.scope.UserID,
			Actions:        []Action{a.bucketAction(bag, r.ID)},
			Start:          r.StartDate,
			End:            r.EndDate,
			Comment:        r.Comment,
			Status:         status,
			LastUpdated:    r.LastUpdated,
			Active:         r.Active,
			RefNo:          r.RefNo,
			Info:           geo[r.CounterpartyID],
		})
	}

	if stock.Len() > 0 {
		views = append(views, RefUserView{
			ID:             DefaultCounterparty,
			CounterpartyID: DefaultCounterparty,
			SourceUserID:   a.scope.UserID,
			Actions:        []Action{a.bucketAction(stock, DefaultCounterparty)},
			Active:         true,
		})
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &Group{GroupID: StockDataGroup, RefUsers: views}, nil
}

// bucketAction renders the values of owner as one product action, items in
// order of first appearance.
func (a *assembler) bucketAction(bag *AttributeBag, owner string) Action {
	action := Action{ItemTypeID: ItemTypeProduct}
	index := make(map[string]int)
	for _, k := range bag.Keys(owner) {
		attr, ok := bag.Get(k)
		if !ok {
			continue
		}
		i, seen := index[k.ItemID]
		if !seen {
			i = len(action.Items)
			index[k.ItemID] = i
			action.Items = append(action.Items, Item{
				ItemID:     k.ItemID,
				ItemTypeID: ItemTypeProduct,
				CategoryID: a.category(k.ItemID, ItemTypeProduct),
			})
		}
		action.Items[i].Attributes = append(action.Items[i].Attributes, attr)
	}
	return action
}
