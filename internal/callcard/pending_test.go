package callcard

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/callcard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Pending(ctx, testUser)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Pending(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)

	card := seedCard(f)
	f.store.cards = append(f.store.cards, models.Card{ID: "older", UserID: testUser, StartDate: f.now.Add(-48 * time.Hour), Active: true})

	got, err := f.svc.Pending(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, card.ID, got.ID)
	assert.Equal(t, testTemplate, got.TemplateID)
	assert.False(t, got.Submitted)
}

func TestItemStatistics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	card := seedCard(f)
	f.store.refUsers = append(f.store.refUsers, models.RefUser{ID: "ref-1", CardID: card.ID})
	f.store.entries = append(f.store.entries,
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p2", PropertyName: PropertySales, PropertyValue: "4", Type: int(StatusSell)},
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p1", PropertyName: PropertySales, PropertyValue: "2", Type: int(StatusSell)},
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p2", PropertyName: PropertySales, PropertyValue: "-1", Type: int(StatusCreditSell)},
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p2", PropertyName: PropertySales, PropertyValue: "many", Type: int(StatusSell)},
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p3", PropertyName: PropertySales, PropertyValue: "9", Type: int(StatusBuy)},
		models.IndexEntry{RefUserID: "ref-1", ItemID: "p1", PropertyName: PropertySalesUnit, PropertyValue: "6", Type: int(StatusSell)},
	)

	got, err := f.svc.ItemStatistics(ctx, StatisticsQuery{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, []ItemStatistic{{ItemID: "p2", Quantity: 3}, {ItemID: "p1", Quantity: 2}}, got)

	got, err = f.svc.ItemStatistics(ctx, StatisticsQuery{UserID: testUser, Types: StatusSet{StatusBuy}})
	require.NoError(t, err)
	assert.Equal(t, []ItemStatistic{{ItemID: "p3", Quantity: 9}}, got)

	got, err = f.svc.ItemStatistics(ctx, StatisticsQuery{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	from, to := f.now, f.now.Add(-time.Hour)
	_, err = f.svc.ItemStatistics(ctx, StatisticsQuery{UserID: testUser, From: &from, To: &to})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitIndirect(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	ctx := context.Background()

	_, err := f.svc.SubmitIndirect(ctx, IndirectRequest{Scope: scope()})
	assert.ErrorIs(t, err, ErrValidation)

	req := IndirectRequest{
		Scope:          scope(),
		IndirectUserID: "user-9",
		Card: CardView{
			ID:     "ignored-token",
			Groups: []Group{{RefUsers: []RefUserView{refUser("tmp-1", "shop-a", StatusIndirectBuy, product("p1", attr(PropertySales, "2", StatusIndirectBuy)))}}},
		},
	}
	cardID, err := f.svc.SubmitIndirect(ctx, req)
	require.NoError(t, err)

	require.Len(t, f.store.cards, 1)
	card := f.store.cards[0]
	assert.Equal(t, cardID, card.ID)
	assert.Equal(t, "user-9", card.UserID)
	assert.Equal(t, testTemplate, card.TemplateID)
	assert.True(t, card.Active)

	require.Len(t, f.store.refUsers, 1)
	assert.Equal(t, testUser, f.store.refUsers[0].SourceUserID)
	assert.Len(t, f.store.entriesOf(f.store.refUsers[0].ID), 1)

	require.Equal(t, []EventKind{EventIndirectAction}, f.events.kinds())
	e := f.events.events[0]
	assert.Equal(t, "user-9", e.UserID)
	assert.Equal(t, cardID, e.Properties[PropItemID])
	assert.Equal(t, testUser, e.Properties[PropFromUserID])
	assert.Equal(t, "2024-03-01T10:00:00Z", e.Properties[PropDate])

	again, err := f.svc.SubmitIndirect(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, cardID, again, "the active card is reused")
	assert.Len(t, f.store.cards, 1)
}

func TestSyncSimplified(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	ctx := context.Background()

	created := f.now.Add(-2 * time.Hour)
	card := SimplifiedCard{
		ID:          "8812",
		DateCreated: &created,
		Submitted:   true,
		RefUsers: []SimplifiedRefUser{{
			ID:           "tmp-1",
			IssuerUserID: "user-3",
			RecipientID:  "shop-a",
			Status:       ptr(StatusOrder),
			Active:       true,
			Items: []Item{
				product("p1", attr(PropertySales, "5", StatusSell), attr(PropertySalesUnit, "1", StatusSell)),
			},
		}},
	}

	cardID, err := f.svc.SyncSimplified(ctx, scope(), card)
	require.NoError(t, err)

	stored := f.store.cards[0]
	assert.Equal(t, cardID, stored.ID)
	assert.Equal(t, "8812", stored.InternalRefNo)
	assert.Equal(t, created, stored.StartDate)
	assert.False(t, stored.Active)

	ref := f.store.refUsers[0]
	assert.Equal(t, "shop-a", ref.CounterpartyID)
	assert.Equal(t, "user-3", ref.SourceUserID)
	assert.Nil(t, ref.EndDate, "simplified sync keeps the end date")

	assert.Empty(t, f.ledger.calls, "no order routing")
	assert.Len(t, f.store.entriesOf(ref.ID), 2)

	kinds := f.events.kinds()
	require.Equal(t, []EventKind{EventUploaded, EventStatistics}, kinds)
	assert.Equal(t, "5", f.events.events[1].Properties[PropQuantity])
	assert.Equal(t, "1", f.events.events[1].Properties[PropUnitTypeID])

	again, err := f.svc.SyncSimplified(ctx, scope(), card)
	require.NoError(t, err)
	assert.Equal(t, cardID, again)
	assert.Len(t, f.store.refUsers, 1)

	_, err = f.svc.SyncSimplified(ctx, scope(), SimplifiedCard{})
	assert.ErrorIs(t, err, ErrValidation)
}
