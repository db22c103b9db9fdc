package callcard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/callcard/internal/models"
)

// Listing page sizes
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paging selects one page of a listing. Page counts from 1; zero values take the defaults.
type Paging struct {
	Page     int
	PageSize int
}

// Normalize applies the defaults and rejects out of range values.
func (p Paging) Normalize() (Paging, error) {
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page must not be negative", ErrValidation)
	}
	if p.PageSize < 0 || p.PageSize > MaxPageSize {
		return p, fmt.Errorf("%w: page size must be between 1 and %d", ErrValidation, MaxPageSize)
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p, nil
}

func (p Paging) offset() int {
	return (p.Page - 1) * p.PageSize
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: date range ends before it starts", ErrValidation)
	}
	return nil
}

// SimplifiedQuery filters the RefUsers listed as simplified cards. UserID
// is the card owner; From and To bound the RefUser start date.
type SimplifiedQuery struct {
	UserID         string
	SourceUserID   string
	CounterpartyID string
	From           *time.Time
	To             *time.Time
	Paging
}

func (q SimplifiedQuery) filter() (RefUserFilter, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return RefUserFilter{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := validateRange(q.From, q.To); err != nil {
		return RefUserFilter{}, err
	}
	return RefUserFilter{
		OwnerID:        q.UserID,
		SourceUserID:   strings.TrimSpace(q.SourceUserID),
		CounterpartyID: strings.TrimSpace(q.CounterpartyID),
		From:           q.From,
		To:             q.To,
	}, nil
}

// ListSimplified pages over the owner's RefUsers and returns those with
// stored entries grouped per card, cards in order of first appearance.
func (s *Service) ListSimplified(ctx context.Context, q SimplifiedQuery) ([]SimplifiedCard, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	p, err := q.Paging.Normalize()
	if err != nil {
		return nil, err
	}

	refs, err := s.store.ListRefUsers(ctx, f, p.offset(), p.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list ref users: %w", err)
	}
	out := []SimplifiedCard{}
	if len(refs) == 0 {
		return out, nil
	}
	items, err := s.storedItems(ctx, refs)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for _, r := range refs {
		if len(items[r.ID]) == 0 {
			continue
		}
		i, ok := index[r.CardID]
		if !ok {
			card, err := s.store.Card(ctx, r.CardID)
			if err != nil {
				return nil, fmt.Errorf("card %s: %w", r.CardID, err)
			}
			i = len(out)
			index[r.CardID] = i
			out = append(out, simplifiedCard(card))
		}
		out[i].RefUsers = append(out[i].RefUsers, simplifiedRefUser(r, items[r.ID]))
	}
	return out, nil
}

// CountSimplified counts the RefUsers matching q, entries or not. Paging is ignored.
func (s *Service) CountSimplified(ctx context.Context, q SimplifiedQuery) (int64, error) {
	f, err := q.filter()
	if err != nil {
		return 0, err
	}
	n, err := s.store.CountRefUsers(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count ref users: %w", err)
	}
	return n, nil
}

// GetSimplified returns one card of the user with all its RefUsers.
func (s *Service) GetSimplified(ctx context.Context, userID, cardID string) (*SimplifiedCard, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	card, err := s.store.Card(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}
	if !strings.EqualFold(card.UserID, userID) {
		return nil, fmt.Errorf("%w: card %s is not owned by user %s", ErrOwnership, card.ID, userID)
	}

	refs, err := s.store.RefUsers(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("ref users of %s: %w", card.ID, err)
	}
	items, err := s.storedItems(ctx, refs)
	if err != nil {
		return nil, err
	}
	out := simplifiedCard(card)
	for _, r := range refs {
		out.RefUsers = append(out.RefUsers, simplifiedRefUser(r, items[r.ID]))
	}
	return &out, nil
}

// storedItems renders the entries of refs as items per RefUser id, items in
// order of first appearance.
func (s *Service) storedItems(ctx context.Context, refs []models.RefUser) (map[string][]Item, error) {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	entries, err := s.store.Entries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	props, err := s.properties.PropertiesFor(ctx, ItemTypeCardIndex)
	if err != nil {
		return nil, fmt.Errorf("property catalog: %w", err)
	}
	a := &assembler{svc: s, props: props}

	type itemKey struct {
		ref      string
		itemType int
		item     string
	}
	out := make(map[string][]Item)
	pos := make(map[itemKey]int)
	for _, e := range entries {
		k := itemKey{ref: e.RefUserID, itemType: e.ItemTypeID, item: e.ItemID}
		i, ok := pos[k]
		if !ok {
			i = len(out[e.RefUserID])
			pos[k] = i
			out[e.RefUserID] = append(out[e.RefUserID], Item{ItemID: e.ItemID, ItemTypeID: e.ItemTypeID})
		}
		out[e.RefUserID][i].Attributes = append(out[e.RefUserID][i].Attributes, a.entryAttribute(e))
	}
	return out, nil
}

func simplifiedCard(c *models.Card) SimplifiedCard {
	start := c.StartDate
	return SimplifiedCard{
		ID:          c.ID,
		DateCreated: &start,
		DateUpdated: c.LastUpdated,
		End:         c.EndDate,
		RefUsers:    []SimplifiedRefUser{},
		Submitted:   !c.Active,
	}
}

func simplifiedRefUser(r models.RefUser, items []Item) SimplifiedRefUser {
	if items == nil {
		items = []Item{}
	}
	return SimplifiedRefUser{
		ID:           r.ID,
		IssuerUserID: r.SourceUserID,
		RecipientID:  r.CounterpartyID,
		Items:        items,
		DateCreated:  r.StartDate,
		DateUpdated:  r.LastUpdated,
		Comment:      r.Comment,
		Status:       statusOf(r.Status),
		RefNo:        r.RefNo,
		Active:       r.Active,
	}
}

// TemplateViews renders a blank card for every template assigned to the
// caller. Nothing is stored.
func (s *Service) TemplateViews(ctx context.Context, scope Scope) ([]CardView, error) {
	if strings.TrimSpace(scope.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	assigned, err := s.templates.Assigned(ctx, TemplateQuery{
		UserID:      scope.UserID,
		UserGroupID: scope.UserGroupID,
		GameTypeID:  scope.GameTypeID,
	})
	if err != nil {
		return nil, fmt.Errorf("assigned templates: %w", err)
	}
	props, err := s.properties.PropertiesFor(ctx, ItemTypeCardIndex)
	if err != nil {
		return nil, fmt.Errorf("property catalog: %w", err)
	}

	vs := s.loadSettings(ctx, scope.GameTypeID)
	a := &assembler{
		svc:      s,
		scope:    scope,
		props:    props,
		cats:     s.categoriesFor(ctx, scope.GameTypeID, vs.categories),
		settings: vs,
	}
	views := make([]CardView, 0, len(assigned))
	for i := range assigned {
		views = append(views, CardView{
			TemplateID: assigned[i].ID,
			Groups:     a.templateGroups(ctx, &assigned[i]),
		})
	}
	return views, nil
}

// SummaryQuery pages over the cards built from templates of a user group.
type SummaryQuery struct {
	UserGroupID string
	Paging
}

// Summaries returns card headers of a user group, most recent first, and
// the total number of such cards.
func (s *Service) Summaries(ctx context.Context, q SummaryQuery) ([]CardSummary, int64, error) {
	if strings.TrimSpace(q.UserGroupID) == "" {
		return nil, 0, fmt.Errorf("%w: user group id is required", ErrValidation)
	}
	p, err := q.Paging.Normalize()
	if err != nil {
		return nil, 0, err
	}
	cards, total, err := s.store.GroupCards(ctx, q.UserGroupID, p.offset(), p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("cards of group %s: %w", q.UserGroupID, err)
	}
	out := make([]CardSummary, len(cards))
	for i := range cards {
		out[i] = cardSummary(&cards[i])
	}
	return out, total, nil
}

func cardSummary(c *models.Card) CardSummary {
	return CardSummary{
		ID:          c.ID,
		Start:       c.StartDate,
		End:         c.EndDate,
		Submitted:   !c.Active,
		Comments:    c.Comments,
		LastUpdated: c.LastUpdated,
		TemplateID:  c.TemplateID,
	}
}
