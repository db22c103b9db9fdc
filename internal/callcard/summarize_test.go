package callcard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	src := &fakeHistory{
		index: []HistoryRow{
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: PropertySales, Value: "2", SubmitDate: day(1)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: PropertySales, Value: "0", SubmitDate: day(2)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: PropertySales, Value: "4", SubmitDate: day(3)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: "CallCardIndex.note", Value: "old", SubmitDate: day(1)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: "CallCardIndex.note", Value: "first", SubmitDate: day(5)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: "CallCardIndex.note", Value: "second", SubmitDate: day(5)},
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: "CallCardIndex.note", Value: "", SubmitDate: day(9)},
			{CounterpartyID: "shop-b", ItemID: "p1", PropertyName: PropertySales, Value: "0", SubmitDate: day(1)},
		},
		orders: []HistoryRow{
			{CounterpartyID: "shop-a", ItemID: "p1", PropertyName: PropertySales, Value: "6", SubmitDate: day(4)},
		},
	}

	bag, err := Summarize(context.Background(), src, DefaultPolicy(), SummaryRequest{
		CounterpartyIDs: []string{"shop-a", "shop-b"},
		UserID:          testUser,
		Lookback:        3,
		Properties:      Properties(testProperties),
	})
	require.NoError(t, err)

	sales, ok := bag.Get(BagKey{Owner: "shop-a", ItemID: "p1", Property: PropertySales})
	require.True(t, ok)
	assert.Equal(t, "4", *sales.RefValue, "average of 2, 4 and 6 with the zero left out")
	assert.Nil(t, sales.Value)
	assert.Equal(t, "key-sales", sales.PropertyID)

	note, ok := bag.Get(BagKey{Owner: "shop-a", ItemID: "p1", Property: "CallCardIndex.note"})
	require.True(t, ok)
	assert.Equal(t, "first", *note.RefValue, "latest date wins and the first arrival breaks ties")

	_, ok = bag.Get(BagKey{Owner: "shop-b", ItemID: "p1", Property: PropertySales})
	assert.False(t, ok, "only zero values means no summary")

	assert.Equal(t, 3, src.last.Lookback)
	assert.Equal(t, DefaultPolicy().Visit, src.last.Statuses)
}

func TestSummarizeTruncates(t *testing.T) {
	src := &fakeHistory{index: []HistoryRow{
		{CounterpartyID: "c", ItemID: "i", PropertyName: PropertySales, Value: "1"},
		{CounterpartyID: "c", ItemID: "i", PropertyName: PropertySales, Value: "2"},
	}}
	bag, err := Summarize(context.Background(), src, DefaultPolicy(), SummaryRequest{
		CounterpartyIDs: []string{"c"},
		Lookback:        2,
		Properties:      Properties(testProperties),
	})
	require.NoError(t, err)
	got, _ := bag.Get(BagKey{Owner: "c", ItemID: "i", Property: PropertySales})
	assert.Equal(t, "1", *got.RefValue)
}

func TestSummarizeDisabled(t *testing.T) {
	src := &fakeHistory{}
	bag, err := Summarize(context.Background(), src, DefaultPolicy(), SummaryRequest{CounterpartyIDs: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, 0, bag.Len())
	assert.Equal(t, 0, src.calls)
}
