package callcard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SummaryRequest selects the history reduced by Summarize.
type SummaryRequest struct {
	CounterpartyIDs []string
	UserID          string
	Lookback        int
	Properties      Properties
}

type summaryAcc struct {
	key    BagKey
	def    PropertyDef
	sum    int
	count  int
	latest string
	when   time.Time
	seen   bool
}

// Summarize reduces the recent history of the given counterparties into
// summary values, one per (counterparty, item, property). Only rows whose
// status is in policy.Visit are considered.
//
// Integer properties average their non-zero values, truncating. Other
// properties keep the most recently submitted non-blank value; on equal
// submit dates the row seen first wins. Keys without a qualifying row are
// left out. The result carries the value in RefValue only.
func Summarize(ctx context.Context, src HistorySource, policy Policy, req SummaryRequest) (*AttributeBag, error) {
	bag := NewAttributeBag()
	if req.Lookback <= 0 || len(req.CounterpartyIDs) == 0 {
		return bag, nil
	}

	q := HistoryQuery{
		CounterpartyIDs: req.CounterpartyIDs,
		UserID:          req.UserID,
		Lookback:        req.Lookback,
		Statuses:        policy.Visit,
	}
	indexRows, err := src.IndexHistory(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("index history: %w", err)
	}
	orderRows, err := src.OrderHistory(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}

	accs := make(map[BagKey]*summaryAcc)
	var order []BagKey
	for _, rows := range [][]HistoryRow{indexRows, orderRows} {
		for _, row := range rows {
			k := BagKey{Owner: row.CounterpartyID, ItemID: row.ItemID, Property: row.PropertyName}
			acc, ok := accs[k]
			if !ok {
				acc = &summaryAcc{key: k, def: req.Properties[row.PropertyName]}
				accs[k] = acc
				order = append(order, k)
			}
			acc.add(row)
		}
	}

	for _, k := range order {
		acc := accs[k]
		v, ok := acc.result()
		if !ok {
			continue
		}
		bag.Put(SourceSummary, k, Attribute{
			PropertyID:   acc.def.ID,
			PropertyType: acc.def.DataType,
			RefValue:     &v,
		})
	}
	return bag, nil
}

func (a *summaryAcc) add(row HistoryRow) {
	value := strings.TrimSpace(row.Value)
	if value == "" {
		return
	}
	if a.def.DataType == DataTypeInteger {
		n, err := strconv.Atoi(value)
		if err != nil || n == 0 {
			return
		}
		a.sum += n
		a.count++
		return
	}
	if !a.seen || row.SubmitDate.After(a.when) {
		a.latest = value
		a.when = row.SubmitDate
		a.seen = true
	}
}

func (a *summaryAcc) result() (string, bool) {
	if a.def.DataType == DataTypeInteger {
		if a.count == 0 {
			return "", false
		}
		return strconv.Itoa(a.sum / a.count), true
	}
	return a.latest, a.seen
}
