package callcard

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/callcard/internal/models"
)

// OrderAttributes reshapes order lines into sales attributes keyed by the
// RefUser the order is linked to. Quantities of repeated items are summed.
func OrderAttributes(orders []Order, props Properties) *AttributeBag {
	bag := NewAttributeBag()
	def := props[PropertySales]
	for _, o := range orders {
		if o.RefItemID == "" {
			continue
		}
		submitted := o.DateCreated
		if o.DateSubmitted != nil {
			submitted = *o.DateSubmitted
		}
		for _, line := range o.Lines {
			qty := strconv.Itoa(line.Quantity)
			at := submitted
			bag.Sum(SourceOrder, BagKey{Owner: o.RefItemID, ItemID: line.ItemID, Property: PropertySales}, Attribute{
				PropertyID:    def.ID,
				PropertyType:  def.DataType,
				Value:         &qty,
				DateSubmitted: &at,
				Amount:        line.Price,
			})
		}
	}
	return bag
}

// linesDiffer reports whether staged lines would change an existing order:
// a different line count, or an existing line with no staged line of the
// same item, quantity and price. Each staged line matches at most once.
func linesDiffer(existing, staged []OrderLine) bool {
	if len(existing) != len(staged) {
		return true
	}
	used := make([]bool, len(staged))
	for _, cur := range existing {
		i := matchLine(staged, used, cur)
		if i < 0 {
			return true
		}
		used[i] = true
	}
	return false
}

// matchLine returns the index of the first unused line equal to want, or -1.
func matchLine(lines []OrderLine, used []bool, want OrderLine) int {
	for i, l := range lines {
		if used[i] || !strings.EqualFold(l.ItemID, want.ItemID) {
			continue
		}
		if l.Quantity == want.Quantity && samePrice(l.Price, want.Price) {
			return i
		}
	}
	return -1
}

// samePrice compares prices at cent precision; nil only equals nil.
func samePrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Round(*a*100) == math.Round(*b*100)
}

// stagedOrder collects the order work for one RefUser during a sync.
type stagedOrder struct {
	existing *Order
	header   Order
	lines    []OrderLine
}

func newStagedOrder(userID string, ref *models.RefUser, existing *Order, now time.Time) *stagedOrder {
	st := &stagedOrder{
		existing: existing,
		header: Order{
			RefItemID:      ref.ID,
			CreatedBy:      userID,
			FromUserID:     ref.SourceUserID,
			CounterpartyID: ref.CounterpartyID,
			Status:         OrderStatusSubmitted,
			Comments:       ref.Comment,
			DateCreated:    now,
		},
	}
	if ref.StartDate != nil {
		st.header.DateCreated = *ref.StartDate
	}
	if ref.EndDate != nil {
		end := *ref.EndDate
		st.header.DateSubmitted = &end
	}
	if existing != nil {
		st.header.Status = existing.Status
	}
	return st
}

// needsWrite reports whether the staged lines call for a new order or a revision.
func (s *stagedOrder) needsWrite() bool {
	if s.existing == nil {
		return len(s.lines) > 0
	}
	return linesDiffer(s.existing.Lines, s.lines)
}
