package callcard

import "strconv"

// Status is the transaction kind recorded on a RefUser.
type Status int

const (
	StatusBuy Status = iota + 1
	StatusSell
	StatusReturn
	StatusCreditSell
	StatusIndirectBuy
	StatusUnscheduledSell
	StatusOrder
	StatusUnscheduledOrder
)

var statusNames = map[Status]string{
	StatusBuy:              "BUY",
	StatusSell:             "SELL",
	StatusReturn:           "RETURN",
	StatusCreditSell:       "CREDIT_SELL",
	StatusIndirectBuy:      "INDIRECT_BUY",
	StatusUnscheduledSell:  "UNSCHEDULED_SELL",
	StatusOrder:            "ORDER",
	StatusUnscheduledOrder: "UNSCHEDULED_ORDER",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "STATUS(" + strconv.Itoa(int(s)) + ")"
}

// StatusSet is a named grouping of status codes.
type StatusSet []Status

// Contains reports whether st belongs to the set.
func (s StatusSet) Contains(st Status) bool {
	for _, v := range s {
		if v == st {
			return true
		}
	}
	return false
}

// ContainsPtr is Contains for an optional status; nil never matches.
func (s StatusSet) ContainsPtr(st *Status) bool {
	return st != nil && s.Contains(*st)
}

// Ints returns the set as plain integers for query parameters.
func (s StatusSet) Ints() []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = int(v)
	}
	return out
}

// Policy groups the status sets that drive routing and aggregation.
// It is passed explicitly to the service and the summarizer.
type Policy struct {
	// Visit statuses qualify rows for historical summaries.
	Visit StatusSet
	// Order statuses route the sales property to the order ledger.
	Order StatusSet
	// Sell statuses feed the quantity statistics.
	Sell StatusSet
	// Stock statuses are rolled up into the default counterparty bucket.
	Stock StatusSet
	// Unscheduled statuses never match a template assignment.
	Unscheduled StatusSet
}

// DefaultPolicy returns the standard status groupings.
func DefaultPolicy() Policy {
	return Policy{
		Visit:       StatusSet{StatusSell, StatusUnscheduledSell, StatusOrder, StatusUnscheduledOrder},
		Order:       StatusSet{StatusOrder, StatusUnscheduledOrder},
		Sell:        StatusSet{StatusSell, StatusUnscheduledSell, StatusCreditSell},
		Stock:       StatusSet{StatusBuy, StatusIndirectBuy},
		Unscheduled: StatusSet{StatusUnscheduledSell, StatusUnscheduledOrder},
	}
}
