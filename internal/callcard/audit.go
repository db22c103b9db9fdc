package callcard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/callcard/internal/models"
)

// TransactionType classifies an audited card change.
type TransactionType string

const (
	TxCreate          TransactionType = "CREATE"
	TxUpdate          TransactionType = "UPDATE"
	TxDelete          TransactionType = "DELETE"
	TxAssign          TransactionType = "ASSIGN"
	TxUnassign        TransactionType = "UNASSIGN"
	TxTemplateChange  TransactionType = "TEMPLATE_CHANGE"
	TxStatusChange    TransactionType = "STATUS_CHANGE"
	TxDateChange      TransactionType = "DATE_CHANGE"
	TxCommentChange   TransactionType = "COMMENT_CHANGE"
	TxReferenceChange TransactionType = "REFERENCE_CHANGE"
)

var transactionTypes = []TransactionType{
	TxCreate, TxUpdate, TxDelete, TxAssign, TxUnassign, TxTemplateChange,
	TxStatusChange, TxDateChange, TxCommentChange, TxReferenceChange,
}

// ParseTransactionType accepts a type name in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range transactionTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrValidation, s)
}

// CardTransaction is one audited change of a card.
type CardTransaction struct {
	ID          string          `json:"transactionId"`
	CardID      string          `json:"callCardId"`
	Type        TransactionType `json:"transactionType"`
	UserID      string          `json:"userId"`
	UserGroupID string          `json:"userGroupId,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	OldValue    string          `json:"oldValue,omitempty"`
	NewValue    string          `json:"newValue,omitempty"`
	Description string          `json:"description,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// TransactionFilter selects audited changes. Blank fields do not filter.
type TransactionFilter struct {
	CardID string
	UserID string
	Type   TransactionType
	From   *time.Time
	To     *time.Time
}

// AuditLog stores card transactions. Record joins the transaction carried by ctx.
type AuditLog interface {
	Record(ctx context.Context, txs []CardTransaction) error
	// Transactions returns one page of matches, newest first, and the total match count.
	Transactions(ctx context.Context, f TransactionFilter, offset, limit int) ([]CardTransaction, int64, error)
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, []CardTransaction) error { return nil }

func (nopAudit) Transactions(context.Context, TransactionFilter, int, int) ([]CardTransaction, int64, error) {
	return nil, 0, nil
}

// TransactionQuery asks for the audited changes of a card, a user or a type.
type TransactionQuery struct {
	TransactionFilter
	Paging
}

// Transactions lists audited card changes newest first, with the total
// count of matches. At least one of card, user or type must be given.
func (s *Service) Transactions(ctx context.Context, q TransactionQuery) ([]CardTransaction, int64, error) {
	f := q.TransactionFilter
	f.CardID = strings.TrimSpace(f.CardID)
	f.UserID = strings.TrimSpace(f.UserID)
	if f.CardID == "" && f.UserID == "" && f.Type == "" {
		return nil, 0, fmt.Errorf("%w: card id, user id or transaction type is required", ErrValidation)
	}
	if f.Type != "" {
		t, err := ParseTransactionType(string(f.Type))
		if err != nil {
			return nil, 0, err
		}
		f.Type = t
	}
	if err := validateRange(f.From, f.To); err != nil {
		return nil, 0, err
	}
	p, err := q.Paging.Normalize()
	if err != nil {
		return nil, 0, err
	}

	txs, total, err := s.audit.Transactions(ctx, f, p.offset(), p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("card transactions: %w", err)
	}
	return txs, total, nil
}

func (s *Service) transaction(scope Scope, cardID string, t TransactionType) CardTransaction {
	return CardTransaction{
		CardID:      cardID,
		Type:        t,
		UserID:      scope.UserID,
		UserGroupID: scope.UserGroupID,
		Timestamp:   s.now(),
	}
}

func (s *Service) recordCreate(ctx context.Context, scope Scope, cardID, templateID string) error {
	tx := s.transaction(scope, cardID, TxCreate)
	tx.NewValue = templateID
	tx.Description = "card created from template"
	if err := s.audit.Record(ctx, []CardTransaction{tx}); err != nil {
		return fmt.Errorf("audit card %s: %w", cardID, err)
	}
	return nil
}

// cardChanges describes a reconciled card against its state before the sync.
func (s *Service) cardChanges(scope Scope, wasActive bool, oldComments string, card *models.Card, refUsers int) []CardTransaction {
	update := s.transaction(scope, card.ID, TxUpdate)
	update.Description = fmt.Sprintf("%d ref users reconciled", refUsers)
	txs := []CardTransaction{update}

	if wasActive && !card.Active {
		st := s.transaction(scope, card.ID, TxStatusChange)
		st.OldValue, st.NewValue = "active", "submitted"
		txs = append(txs, st)
	}
	if oldComments != card.Comments {
		c := s.transaction(scope, card.ID, TxCommentChange)
		c.OldValue, c.NewValue = oldComments, card.Comments
		txs = append(txs, c)
	}
	return txs
}
