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

// Pending returns the header of the user's most recent active card.
func (s *Service) Pending(ctx context.Context, userID string) (*CardSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	cards, err := s.store.ActiveCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("active cards: %w", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no active card for user %s", ErrNotFound, userID)
	}
	summary := cardSummary(&cards[0])
	return &summary, nil
}

// ItemStatistics sums the integer values of a property per item over the
// user's stored entries. Property defaults to the sales property and Types
// to the sell statuses. Values that are not integers are skipped.
func (s *Service) ItemStatistics(ctx context.Context, q StatisticsQuery) ([]ItemStatistic, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := validateRange(q.From, q.To); err != nil {
		return nil, err
	}
	if q.Property == "" {
		q.Property = PropertySales
	}
	if len(q.Types) == 0 {
		q.Types = s.policy.Sell
	}

	entries, err := s.store.UserEntries(ctx, EntryFilter{
		UserID:   q.UserID,
		Property: q.Property,
		Types:    q.Types.Ints(),
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("user entries: %w", err)
	}

	out := []ItemStatistic{}
	index := make(map[string]int)
	for _, e := range entries {
		n, err := strconv.Atoi(strings.TrimSpace(e.PropertyValue))
		if err != nil {
			continue
		}
		i, ok := index[e.ItemID]
		if !ok {
			i = len(out)
			index[e.ItemID] = i
			out = append(out, ItemStatistic{ItemID: e.ItemID})
		}
		out[i].Quantity += n
	}
	return out, nil
}

// SubmitIndirect reconciles progress a user records on behalf of another
// user into that user's active card, creating one when needed. It returns
// the id of the card written.
func (s *Service) SubmitIndirect(ctx context.Context, req IndirectRequest) (string, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return "", fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(req.IndirectUserID) == "" {
		return "", fmt.Errorf("%w: indirect user id is required", ErrValidation)
	}

	target := req.Scope
	target.UserID = req.IndirectUserID

	var subs []submission
	for _, g := range req.Card.Groups {
		for _, r := range g.RefUsers {
			sub := fromView(r)
			if sub.SourceUserID == "" {
				sub.SourceUserID = req.UserID
			}
			subs = append(subs, sub)
		}
	}

	resolve := func(ctx context.Context, tx Store) (*models.Card, error) {
		return s.indirectCard(ctx, tx, target, req.Card.TemplateID)
	}
	extra := func(card *models.Card) []Event {
		return []Event{
			newEvent(EventIndirectAction, target, card.ID, ItemTypeCard, 0).
				with(PropFromUserID, req.UserID).
				with(PropDate, s.now().UTC().Format(time.RFC3339)),
		}
	}
	return s.syncCard(ctx, target, req.Card, subs, fullSync, resolve, extra)
}

// indirectCard returns the target user's most recent active card or
// creates one from templateID or the template assigned to the user.
func (s *Service) indirectCard(ctx context.Context, tx Store, target Scope, templateID string) (*models.Card, error) {
	cards, err := tx.ActiveCards(ctx, target.UserID)
	if err != nil {
		return nil, fmt.Errorf("active cards: %w", err)
	}
	if len(cards) > 0 {
		if len(cards) > 1 {
			s.log.Warn("multiple active cards, using the most recent", zap.String("userId", target.UserID), zap.Int("count", len(cards)))
		}
		return &cards[0], nil
	}

	if !isDurableID(templateID) {
		templateID = ""
	}
	tmpl, err := s.resolveTemplate(ctx, target, templateID)
	if err != nil {
		return nil, err
	}
	card := &models.Card{
		ID:         s.newID(),
		TemplateID: tmpl.ID,
		UserID:     target.UserID,
		StartDate:  s.now(),
		Active:     true,
	}
	if err := tx.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	if err := s.recordCreate(ctx, target, card.ID, card.TemplateID); err != nil {
		return nil, err
	}
	return card, nil
}
