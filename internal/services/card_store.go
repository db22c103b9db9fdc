// card_store.go
//
// Visit card storage and reconciliation service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of callcard.
// callcard is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// callcard is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with callcard.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"fmt"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardStore is the gorm backed card storage.
type CardStore struct {
	db *gorm.DB
}

// NewCardStore returns a CardStore over db.
func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

var _ callcard.Store = (*CardStore)(nil)

// Card loads a card by id
func (s *CardStore) Card(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	if err := quiet(conn(ctx, s.db)).Where("id = ?", id).First(&card).Error; err != nil {
		return nil, notFound(err, "card", id)
	}
	return &card, nil
}

// ActiveCards lists the user's active cards, most recent first
func (s *CardStore) ActiveCards(ctx context.Context, userID string) ([]models.Card, error) {
	var cards []models.Card
	err := quiet(conn(ctx, s.db)).
		Where("user_id = ? AND active = ?", userID, true).
		Order("start_date DESC").
		Find(&cards).Error
	return cards, err
}

// CardsByInternalRef finds the cards created for a client token
func (s *CardStore) CardsByInternalRef(ctx context.Context, userID, ref string) ([]models.Card, error) {
	var cards []models.Card
	err := conn(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND internal_ref_no = ?", userID, ref).
		Find(&cards).Error
	return cards, err
}

func (s *CardStore) CreateCard(ctx context.Context, c *models.Card) error {
	return conn(ctx, s.db).Create(c).Error
}

func (s *CardStore) UpdateCard(ctx context.Context, c *models.Card) error {
	return conn(ctx, s.db).Save(c).Error
}

// GroupCards pages over the cards whose template belongs to userGroupID,
// most recent first
func (s *CardStore) GroupCards(ctx context.Context, userGroupID string, offset, limit int) ([]models.Card, int64, error) {
	cards := models.Card{}.TableName()
	group := func() *gorm.DB {
		return quiet(conn(ctx, s.db)).
			Model(&models.Card{}).
			Joins("JOIN "+models.Template{}.TableName()+" t ON t.id = "+cards+".template_id").
			Where("t.user_group_id = ?", userGroupID)
	}

	var total int64
	if err := group().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count group cards: %w", err)
	}
	var out []models.Card
	err := group().
		Select(cards + ".*").
		Order(cards + ".start_date DESC").
		Order(cards + ".id").
		Offset(offset).Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("group cards: %w", err)
	}
	return out, total, nil
}

// RefUser loads a RefUser by id
func (s *CardStore) RefUser(ctx context.Context, id string) (*models.RefUser, error) {
	var ref models.RefUser
	if err := conn(ctx, s.db).Where("id = ?", id).First(&ref).Error; err != nil {
		return nil, notFound(err, "ref user", id)
	}
	return &ref, nil
}

// RefUsers lists the RefUsers of a card
func (s *CardStore) RefUsers(ctx context.Context, cardID string) ([]models.RefUser, error) {
	var refs []models.RefUser
	err := quiet(conn(ctx, s.db)).
		Where("card_id = ?", cardID).
		Order("start_date, id").
		Find(&refs).Error
	return refs, err
}

// RefUsersByInternalRef finds the RefUsers created for a client token on a card
func (s *CardStore) RefUsersByInternalRef(ctx context.Context, cardID, ref string) ([]models.RefUser, error) {
	var refs []models.RefUser
	err := conn(ctx, s.db).
		Where("card_id = ? AND internal_ref_no = ?", cardID, ref).
		Find(&refs).Error
	return refs, err
}

func (s *CardStore) CreateRefUser(ctx context.Context, r *models.RefUser) error {
	return conn(ctx, s.db).Create(r).Error
}

func (s *CardStore) UpdateRefUser(ctx context.Context, r *models.RefUser) error {
	return conn(ctx, s.db).Save(r).Error
}

// refUsersOf scopes a query to the RefUsers matching f
func (s *CardStore) refUsersOf(ctx context.Context, f callcard.RefUserFilter) *gorm.DB {
	q := quiet(conn(ctx, s.db)).
		Model(&models.RefUser{}).
		Joins("JOIN "+models.Card{}.TableName()+" c ON c.id = "+models.RefUser{}.TableName()+".card_id").
		Where("c.user_id = ?", f.OwnerID)
	if f.SourceUserID != "" {
		q = q.Where(models.RefUser{}.TableName()+".source_user_id = ?", f.SourceUserID)
	}
	if f.CounterpartyID != "" {
		q = q.Where(models.RefUser{}.TableName()+".ref_user_id = ?", f.CounterpartyID)
	}
	if f.From != nil {
		q = q.Where(models.RefUser{}.TableName()+".start_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where(models.RefUser{}.TableName()+".start_date <= ?", *f.To)
	}
	return q
}

// ListRefUsers pages over the RefUsers matching f ordered by start date
func (s *CardStore) ListRefUsers(ctx context.Context, f callcard.RefUserFilter, offset, limit int) ([]models.RefUser, error) {
	var refs []models.RefUser
	err := s.refUsersOf(ctx, f).
		Select(models.RefUser{}.TableName() + ".*").
		Order(models.RefUser{}.TableName() + ".start_date").
		Order(models.RefUser{}.TableName() + ".id").
		Offset(offset).Limit(limit).
		Find(&refs).Error
	return refs, err
}

func (s *CardStore) CountRefUsers(ctx context.Context, f callcard.RefUserFilter) (int64, error) {
	var n int64
	err := s.refUsersOf(ctx, f).Count(&n).Error
	return n, err
}

// Entries returns the entries of the given RefUsers ordered by submit date
func (s *CardStore) Entries(ctx context.Context, refUserIDs []string) ([]models.IndexEntry, error) {
	if len(refUserIDs) == 0 {
		return nil, nil
	}
	var entries []models.IndexEntry
	err := quiet(conn(ctx, s.db)).
		Where("ref_user_id IN ?", refUserIDs).
		Order("submit_date, id").
		Find(&entries).Error
	return entries, err
}

// ResetEntries deletes every entry of a RefUser
func (s *CardStore) ResetEntries(ctx context.Context, refUserID string) error {
	return conn(ctx, s.db).
		Where("ref_user_id = ?", refUserID).
		Delete(&models.IndexEntry{}).Error
}

// AddEntries inserts entries in batches
func (s *CardStore) AddEntries(ctx context.Context, entries []models.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(ctx, s.db).CreateInBatches(entries, 100).Error
}

// UserEntries returns the entries of a property across the user's cards
func (s *CardStore) UserEntries(ctx context.Context, f callcard.EntryFilter) ([]models.IndexEntry, error) {
	q := quiet(conn(ctx, s.db)).
		Table(models.IndexEntry{}.TableName()+" AS i").
		Select("i.*").
		Joins("JOIN "+models.RefUser{}.TableName()+" r ON r.id = i.ref_user_id").
		Joins("JOIN "+models.Card{}.TableName()+" c ON c.id = r.card_id").
		Where("c.user_id = ? AND i.property_name = ?", f.UserID, f.Property)
	if len(f.Types) > 0 {
		q = q.Where("i.type IN ?", f.Types)
	}
	if f.From != nil {
		q = q.Where("i.submit_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("i.submit_date <= ?", *f.To)
	}

	var entries []models.IndexEntry
	if err := q.Order("i.submit_date, i.id").Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("user entries: %w", err)
	}
	return entries, nil
}

// Transaction runs fn in one database transaction. The context passed to fn
// carries the transaction.
func (s *CardStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx callcard.Store) error) error {
	return conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx), &CardStore{db: tx})
	})
}
