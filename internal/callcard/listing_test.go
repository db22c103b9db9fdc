package callcard

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/callcard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cardOne   = "c0000000-0000-4000-8000-000000000001"
	cardTwo   = "c0000000-0000-4000-8000-000000000002"
	cardOther = "c0000000-0000-4000-8000-000000000003"
)

// seedListing stores two cards of testUser and one of another user:
//
//	r1 cardOne   shop-a day 1 with entries
//	r2 cardTwo   shop-b day 2 with entries
//	r3 cardOne   shop-a day 3 without entries
//	r4 cardOther shop-a day 1 with entries
func seedListing(f *fixture) {
	day := func(n int) *time.Time {
		d := f.now.AddDate(0, 0, n)
		return &d
	}
	f.store.cards = []models.Card{
		{ID: cardOne, TemplateID: testTemplate, UserID: testUser, StartDate: *day(1), Active: true},
		{ID: cardTwo, TemplateID: testTemplate, UserID: testUser, StartDate: *day(2)},
		{ID: cardOther, TemplateID: "other-template", UserID: "user-2", StartDate: *day(1), Active: true},
	}
	f.store.refUsers = []models.RefUser{
		{ID: "r1", CardID: cardOne, CounterpartyID: "shop-a", SourceUserID: testUser, StartDate: day(1), Status: ptr(int(StatusSell)), Active: true},
		{ID: "r2", CardID: cardTwo, CounterpartyID: "shop-b", SourceUserID: testUser, StartDate: day(2), Status: ptr(int(StatusOrder))},
		{ID: "r3", CardID: cardOne, CounterpartyID: "shop-a", SourceUserID: "user-9", StartDate: day(3)},
		{ID: "r4", CardID: cardOther, CounterpartyID: "shop-a", StartDate: day(1)},
	}
	f.store.entries = []models.IndexEntry{
		{ID: "i1", RefUserID: "r1", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "3", Type: int(StatusSell)},
		{ID: "i2", RefUserID: "r1", ItemID: "p2", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "1", Type: int(StatusSell)},
		{ID: "i3", RefUserID: "r1", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySalesUnit, PropertyValue: "6", Type: int(StatusSell)},
		{ID: "i4", RefUserID: "r2", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "5", Type: int(StatusOrder)},
		{ID: "i5", RefUserID: "r4", ItemID: "p1", ItemTypeID: ItemTypeProduct, PropertyName: PropertySales, PropertyValue: "9", Type: int(StatusSell)},
	}
}

func refIDs(cards []SimplifiedCard) map[string][]string {
	out := make(map[string][]string)
	for _, c := range cards {
		out[c.ID] = []string{}
		for _, r := range c.RefUsers {
			out[c.ID] = append(out[c.ID], r.ID)
		}
	}
	return out
}

func TestListSimplified(t *testing.T) {
	f := newFixture()
	seedListing(f)
	ctx := context.Background()

	cards, err := f.svc.ListSimplified(ctx, SimplifiedQuery{UserID: testUser})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, cardOne, cards[0].ID, "cards follow their first RefUser")
	assert.Equal(t, map[string][]string{cardOne: {"r1"}, cardTwo: {"r2"}}, refIDs(cards), "RefUsers without entries are left out")
	assert.False(t, cards[0].Submitted)
	assert.True(t, cards[1].Submitted)

	r1 := cards[0].RefUsers[0]
	assert.Equal(t, "shop-a", r1.RecipientID)
	assert.Equal(t, testUser, r1.IssuerUserID)
	assert.Equal(t, StatusSell, *r1.Status)
	require.Len(t, r1.Items, 2)
	assert.Equal(t, "p1", r1.Items[0].ItemID)
	require.Len(t, r1.Items[0].Attributes, 2)
	assert.Equal(t, "key-sales", r1.Items[0].Attributes[0].PropertyID)
	assert.Equal(t, "3", *r1.Items[0].Attributes[0].Value)
	assert.Equal(t, "i3", r1.Items[0].Attributes[1].IndexID)
	assert.Equal(t, "p2", r1.Items[1].ItemID)

	n, err := f.svc.CountSimplified(ctx, SimplifiedQuery{UserID: testUser})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "the count includes RefUsers without entries")
}

func TestListSimplifiedFilters(t *testing.T) {
	f := newFixture()
	seedListing(f)
	ctx := context.Background()
	from := f.now.AddDate(0, 0, 2)

	tests := []struct {
		name  string
		q     SimplifiedQuery
		want  map[string][]string
		count int64
	}{
		{"counterparty", SimplifiedQuery{UserID: testUser, CounterpartyID: "shop-a"}, map[string][]string{cardOne: {"r1"}}, 2},
		{"source user", SimplifiedQuery{UserID: testUser, SourceUserID: "user-9"}, map[string][]string{}, 1},
		{"from", SimplifiedQuery{UserID: testUser, From: &from}, map[string][]string{cardTwo: {"r2"}}, 2},
		{"second page", SimplifiedQuery{UserID: testUser, Paging: Paging{Page: 2, PageSize: 1}}, map[string][]string{cardTwo: {"r2"}}, 3},
		{"past the end", SimplifiedQuery{UserID: testUser, Paging: Paging{Page: 4, PageSize: 1}}, map[string][]string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := f.svc.ListSimplified(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, refIDs(cards))

			n, err := f.svc.CountSimplified(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestListSimplifiedValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	later := f.now.Add(time.Hour)

	for name, q := range map[string]SimplifiedQuery{
		"no user":       {},
		"reversed":      {UserID: testUser, From: &later, To: &f.now},
		"page size":     {UserID: testUser, Paging: Paging{PageSize: MaxPageSize + 1}},
		"negative page": {UserID: testUser, Paging: Paging{Page: -1}},
	} {
		_, err := f.svc.ListSimplified(ctx, q)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	_, err := f.svc.CountSimplified(ctx, SimplifiedQuery{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPagingNormalize(t *testing.T) {
	p, err := Paging{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Paging{Page: 1, PageSize: DefaultPageSize}, p)
	assert.Equal(t, 0, p.offset())

	p, err = Paging{Page: 3, PageSize: 10}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 20, p.offset())

	_, err = Paging{PageSize: -1}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetSimplified(t *testing.T) {
	f := newFixture()
	seedListing(f)
	ctx := context.Background()

	card, err := f.svc.GetSimplified(ctx, testUser, cardOne)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{cardOne: {"r1", "r3"}}, refIDs([]SimplifiedCard{*card}))
	assert.NotNil(t, card.RefUsers[1].Items)
	assert.Empty(t, card.RefUsers[1].Items)
	assert.Equal(t, f.now.AddDate(0, 0, 1), *card.DateCreated)

	_, err = f.svc.GetSimplified(ctx, testUser, cardOther)
	assert.ErrorIs(t, err, ErrOwnership)
	_, err = f.svc.GetSimplified(ctx, testUser, "c0000000-0000-4000-8000-000000000099")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetSimplified(ctx, "", cardOne)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTemplateViews(t *testing.T) {
	f := newFixture()
	f.assign(weeklyTemplate())
	f.assign(Template{
		Template: models.Template{ID: "tmpl-2", Name: "monthly", Active: true},
		POS:      []models.TemplatePOS{{ID: "pos9", CounterpartyID: "shop-z"}},
	})
	ctx := context.Background()

	views, err := f.svc.TemplateViews(ctx, scope())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, testTemplate, views[0].TemplateID)
	assert.Empty(t, views[0].ID)
	assert.NotEmpty(t, views[0].Groups)
	require.Len(t, views[1].Groups, 1)
	assert.Equal(t, "shop-z", views[1].Groups[0].RefUsers[0].CounterpartyID)

	assert.Empty(t, f.store.cards)
	assert.Empty(t, f.audit.txs)
	assert.Empty(t, f.events.kinds())

	_, err = f.svc.TemplateViews(ctx, Scope{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSummaries(t *testing.T) {
	f := newFixture()
	seedListing(f)
	f.store.templateGroups = map[string]string{testTemplate: "group-1", "other-template": "group-2"}
	ctx := context.Background()

	got, total, err := f.svc.Summaries(ctx, SummaryQuery{UserGroupID: "group-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, cardTwo, got[0].ID, "most recent first")
	assert.True(t, got[0].Submitted)
	assert.Equal(t, testTemplate, got[1].TemplateID)

	got, total, err = f.svc.Summaries(ctx, SummaryQuery{UserGroupID: "group-1", Paging: Paging{Page: 2, PageSize: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 1)
	assert.Equal(t, cardOne, got[0].ID)

	got, total, err = f.svc.Summaries(ctx, SummaryQuery{UserGroupID: "group-3"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)

	_, _, err = f.svc.Summaries(ctx, SummaryQuery{})
	assert.ErrorIs(t, err, ErrValidation)
}
