package callcard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/localnerve/callcard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyTemplate() Template {
	return Template{
		Template: models.Template{ID: testTemplate, Name: "weekly", Active: true},
		Entries: []models.TemplateEntry{
			{ID: "e1", ItemID: "p2", ItemTypeID: ItemTypeProduct, Properties: PropertySales + "," + PropertySalesUnit, Ordering: 2},
			{ID: "e2", ItemID: "p1", ItemTypeID: ItemTypeProduct, Properties: PropertySales, Ordering: 1},
			{ID: "e3", ItemID: "p3", ItemTypeID: ItemTypeProduct, Properties: " , ", Ordering: 0},
			{ID: "e4", ItemID: "p4", ItemTypeID: ItemTypeProduct, Properties: "CallCardIndex.note", Ordering: 2},
		},
		POS: []models.TemplatePOS{
			{ID: "pos1", CounterpartyID: "shop-a", GroupID: ptr(2), Mandatory: true},
			{ID: "pos2", CounterpartyID: "shop-b"},
			{ID: "pos3", CounterpartyID: "shop-c", GroupID: ptr(2)},
		},
		References: []models.TemplateReference{
			{ID: "r1", CounterpartyID: "shop-a", ItemID: "quiz-1", ItemTypeID: ItemTypeQuiz, Mandatory: true},
		},
	}
}

func itemIDs(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ItemID)
	}
	return out
}

func TestViewEmptyTemplateCreatesCard(t *testing.T) {
	f := newFixture()
	f.assign(Template{Template: models.Template{ID: testTemplate, Active: true}})

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.NotNil(t, view.Groups)
	assert.Empty(t, view.Groups)
	require.NotNil(t, view.Start)
	assert.Equal(t, f.now, *view.Start)
	assert.Nil(t, view.End)
	assert.False(t, view.Submitted)

	require.Len(t, f.store.cards, 1)
	assert.True(t, f.store.cards[0].Active)
	assert.Equal(t, testUser, f.store.cards[0].UserID)
	assert.Equal(t, []EventKind{EventDownloaded}, f.events.kinds())
}

func TestViewNoDistinctTemplate(t *testing.T) {
	f := newFixture()

	_, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, []EventKind{EventNoDistinctTemplate}, f.events.kinds())
	assert.Empty(t, f.store.cards)
}

func TestViewAssemblesTemplate(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	f.settings[SettingCategories] = "11, 12"

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)

	require.Len(t, view.Groups, 2)
	assert.Equal(t, 2, view.Groups[0].GroupID)
	assert.Equal(t, UnassignedGroup, view.Groups[1].GroupID)
	assert.Equal(t, testTemplate, view.Groups[0].TemplateID)

	shopA := view.Groups[0].RefUsers[0]
	assert.Equal(t, "shop-a", shopA.CounterpartyID)
	assert.Equal(t, "shop-c", view.Groups[0].RefUsers[1].CounterpartyID)
	assert.True(t, shopA.Mandatory)
	assert.True(t, shopA.Active)
	assert.Equal(t, StatusSell, *shopA.Status)
	assert.Equal(t, testUser, shopA.SourceUserID)

	require.Len(t, shopA.Actions, 2)
	items := shopA.Actions[0].Items
	assert.Equal(t, []string{"p1", "p2", "p4"}, itemIDs(items), "sorted by ordering, ties keep catalog order, blank entries dropped")
	assert.Equal(t, ItemTypeProduct, shopA.Actions[0].ItemTypeID)
	require.NotNil(t, items[0].CategoryID)
	assert.Equal(t, 11, *items[0].CategoryID)
	assert.Nil(t, items[1].CategoryID)

	want := []Attribute{
		{PropertyID: "key-sales", PropertyName: PropertySales, PropertyType: DataTypeInteger, Type: ptr(StatusSell)},
		{PropertyID: "key-unit", PropertyName: PropertySalesUnit, PropertyType: DataTypeInteger, Type: ptr(StatusSell)},
	}
	if diff := cmp.Diff(want, items[1].Attributes); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}

	refs := shopA.Actions[1]
	assert.Equal(t, ItemTypeQuiz, refs.ItemTypeID)
	assert.True(t, refs.Mandatory)
	assert.Equal(t, []string{"quiz-1"}, itemIDs(refs.Items))

	shopB := view.Groups[1].RefUsers[0]
	assert.Len(t, shopB.Actions, 1)
	assert.False(t, shopB.Mandatory)
}

func TestViewBatchesSummaryAndGeo(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	f.settings[SettingPreviousVisits] = "3"
	f.settings[SettingIncludeGeo] = "true"
	f.history.index = []HistoryRow{
		{CounterpartyID: "shop-b", ItemID: "p1", PropertyName: PropertySales, Value: "8"},
	}
	f.geo.points = map[string]GeoPoint{"shop-b": {Latitude: 37.98, Longitude: 23.72}}

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)

	assert.Equal(t, 1, f.history.calls)
	assert.Equal(t, 1, f.geo.lookups)
	assert.ElementsMatch(t, []string{"shop-a", "shop-b", "shop-c"}, f.history.last.CounterpartyIDs)

	shopB := view.Groups[1].RefUsers[0]
	attr := shopB.Actions[0].Items[0].Attributes[0]
	require.NotNil(t, attr.RefValue)
	assert.Equal(t, "8", *attr.RefValue)
	assert.Nil(t, attr.Value)
	assert.Equal(t, []KeyValue{{Key: KeyLatitude, Value: "37.98"}, {Key: KeyLongitude, Value: "23.72"}}, shopB.Info)

	assert.Nil(t, view.Groups[0].RefUsers[0].Actions[0].Items[0].Attributes[0].RefValue)
}

func TestViewMalformedSettingsAreIgnored(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	f.settings[SettingPreviousVisits] = "three"
	f.settings[SettingIncludeGeo] = "maybe"
	f.settings[SettingCategories] = "11,x"

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)
	assert.Equal(t, 0, f.history.calls)
	assert.Equal(t, 0, f.geo.lookups)
	assert.Nil(t, view.Groups[0].RefUsers[0].Actions[0].Items[0].CategoryID)
}

// seedCard stores an active card of the weekly template with stored progress.
func seedCard(f *fixture) *models.Card {
	card := models.Card{
		ID:         "11111111-1111-4111-8111-111111111111",
		TemplateID: testTemplate,
		UserID:     testUser,
		StartDate:  f.now.Add(-time.Hour),
		Active:     true,
	}
	f.store.cards = append(f.store.cards, card)
	return &card
}

func TestViewOverlaysStoredProgress(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	card := seedCard(f)
	submitted := f.now.Add(-30 * time.Minute)

	f.store.refUsers = []models.RefUser{
		{ID: "ref-a", CardID: card.ID, CounterpartyID: "shop-a", Status: ptr(int(StatusOrder)), Active: true, Comment: "visited"},
		{ID: "ref-x", CardID: card.ID, CounterpartyID: "shop-b", Status: ptr(int(StatusUnscheduledSell)), Active: true},
	}
	f.store.entries = []models.IndexEntry{
		{ID: "i1", RefUserID: "ref-a", ItemID: "p2", ItemTypeID: ItemTypeProduct, PropertyName: PropertySalesUnit, PropertyValue: "6", Status: 1, SubmitDate: submitted, Type: int(StatusOrder)},
		{ID: "i2", RefUserID: "ref-a", ItemID: "p2", ItemTypeID: ItemTypeProduct, PropertyName: PropertySalesUnit, PropertyValue: "12", Status: 1, SubmitDate: submitted},
		{ID: "i3", RefUserID: "ref-x", ItemID: "p9", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "2", Status: 1, SubmitDate: submitted},
	}
	f.ledger.orders = []Order{{ID: "o1", RefItemID: "ref-a", DateCreated: submitted, Lines: []OrderLine{{ItemID: "p1", Quantity: 4}}}}

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)
	assert.Equal(t, card.ID, view.ID)

	shopA := view.Groups[0].RefUsers[0]
	assert.Equal(t, "ref-a", shopA.ID)
	assert.Equal(t, "visited", shopA.Comment)
	assert.Equal(t, StatusOrder, *shopA.Status)

	items := shopA.Actions[0].Items
	sales := items[0].Attributes[0]
	require.NotNil(t, sales.Value)
	assert.Equal(t, "4", *sales.Value, "sales filled from the order")

	unit := items[1].Attributes[1]
	require.NotNil(t, unit.Value)
	assert.Equal(t, "6", *unit.Value, "first stored entry wins")
	assert.Equal(t, "i1", unit.IndexID)
	assert.Nil(t, items[1].Attributes[0].Value)

	require.Len(t, view.Groups, 3)
	stock := view.Groups[2]
	assert.Equal(t, StockDataGroup, stock.GroupID)
	require.Len(t, stock.RefUsers, 1)
	assert.Equal(t, "ref-x", stock.RefUsers[0].ID)
	assert.Equal(t, []string{"p9"}, itemIDs(stock.RefUsers[0].Actions[0].Items))
}

func TestViewOverlaysEveryRefUserOfPlacedCounterparty(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	card := seedCard(f)
	submitted := f.now.Add(-30 * time.Minute)

	f.store.refUsers = []models.RefUser{
		{ID: "ref-a1", CardID: card.ID, CounterpartyID: "shop-a", Status: ptr(int(StatusSell)), Active: true},
		{ID: "ref-a2", CardID: card.ID, CounterpartyID: "SHOP-A", Status: ptr(int(StatusBuy)), Active: true},
	}
	f.store.entries = []models.IndexEntry{
		{ID: "i1", RefUserID: "ref-a2", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "9", Status: 1, SubmitDate: submitted},
	}

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)

	for _, g := range view.Groups {
		assert.NotEqual(t, StockDataGroup, g.GroupID, "a template counterparty never rolls into the stock bucket")
	}
	shopA := view.Groups[0].RefUsers[0]
	assert.Equal(t, "ref-a2", shopA.ID)
	assert.Equal(t, StatusBuy, *shopA.Status)
	sales := shopA.Actions[0].Items[0].Attributes[0]
	require.NotNil(t, sales.Value)
	assert.Equal(t, "9", *sales.Value)
	assert.Equal(t, "i1", sales.IndexID)
}

func TestViewAggregatesStockIntoDefaultBucket(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	f.settings[SettingCategories] = "11"
	card := seedCard(f)

	f.store.refUsers = []models.RefUser{
		{ID: "buy-1", CardID: card.ID, CounterpartyID: "dist-1", Status: ptr(int(StatusBuy)), Active: true},
		{ID: "buy-2", CardID: card.ID, CounterpartyID: "dist-2", Status: ptr(int(StatusIndirectBuy)), Active: true},
		{ID: "buy-3", CardID: card.ID, CounterpartyID: "dist-3", Status: ptr(int(StatusBuy)), Active: true},
	}
	f.store.entries = []models.IndexEntry{
		{ID: "i1", RefUserID: "buy-1", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "5", Status: 1},
		{ID: "i2", RefUserID: "buy-2", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "7", Status: 1},
		{ID: "i3", RefUserID: "buy-2", ItemID: "p2", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "1", Status: 1},
	}

	view, err := f.svc.View(context.Background(), ViewRequest{Scope: scope()})
	require.NoError(t, err)

	stock := view.Groups[len(view.Groups)-1]
	assert.Equal(t, StockDataGroup, stock.GroupID)
	require.Len(t, stock.RefUsers, 1)
	bucket := stock.RefUsers[0]
	assert.Equal(t, DefaultCounterparty, bucket.CounterpartyID)

	items := bucket.Actions[0].Items
	assert.Equal(t, []string{"p1", "p2"}, itemIDs(items))
	assert.Equal(t, "12", *items[0].Attributes[0].Value)
	assert.Equal(t, "1", *items[1].Attributes[0].Value)
	require.NotNil(t, items[0].CategoryID)
	assert.Equal(t, 11, *items[0].CategoryID)
}

func TestViewCardOwnership(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	card := seedCard(f)

	other := scope()
	other.UserID = "user-2"
	_, err := f.svc.View(context.Background(), ViewRequest{Scope: other, CardID: card.ID})
	assert.ErrorIs(t, err, ErrOwnership)

	_, err = f.svc.View(context.Background(), ViewRequest{Scope: scope(), CardID: "22222222-2222-4222-8222-222222222222"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirstCategory(t *testing.T) {
	c, ok := FirstCategory([]int{5, 12, 11}, []int{11, 12})
	assert.True(t, ok)
	assert.Equal(t, 12, c)

	_, ok = FirstCategory([]int{5}, []int{11})
	assert.False(t, ok)
}
