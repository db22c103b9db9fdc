package callcard

import (
	"context"

	"github.com/localnerve/callcard/internal/models"
)

// simplifiedSync writes every attribute as an entry. It keeps RefUser end
// dates and does not count visits.
var simplifiedSync = syncMode{}

// SyncSimplified reconciles a card submitted as a flat RefUser list and
// returns its durable id. Identity rules match Sync.
func (s *Service) SyncSimplified(ctx context.Context, scope Scope, card SimplifiedCard) (string, error) {
	if err := validateScope(scope, card.ID); err != nil {
		return "", err
	}

	subs := make([]submission, 0, len(card.RefUsers))
	for _, r := range card.RefUsers {
		subs = append(subs, submission{
			ID:             r.ID,
			CounterpartyID: r.RecipientID,
			SourceUserID:   r.IssuerUserID,
			Start:          r.DateCreated,
			LastUpdated:    r.DateUpdated,
			Comment:        r.Comment,
			Status:         r.Status,
			RefNo:          r.RefNo,
			Active:         r.Active,
			Items:          r.Items,
		})
	}

	cv := CardView{
		ID:          card.ID,
		Start:       card.DateCreated,
		End:         card.End,
		LastUpdated: card.DateUpdated,
		Submitted:   card.Submitted,
	}
	resolve := func(ctx context.Context, tx Store) (*models.Card, error) {
		return s.resolveCard(ctx, tx, scope, cv)
	}
	return s.syncCard(ctx, scope, cv, subs, simplifiedSync, resolve, nil)
}
