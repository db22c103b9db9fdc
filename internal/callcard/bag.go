package callcard

import (
	"strconv"
	"strings"
)

// Source ranks where an attribute value came from. Higher ranks win.
type Source int

const (
	SourceOrder Source = iota + 1
	SourceSummary
	SourceStored
)

const sourceCount = int(SourceStored)

// BagKey addresses one attribute. Owner is a counterparty id or, for
// additional buckets, a RefUser id or DefaultCounterparty.
type BagKey struct {
	Owner    string
	ItemID   string
	Property string
}

type layers [sourceCount]*Attribute

// AttributeBag holds attribute values from several sources keyed by
// (owner, item, property).
//
// Get resolves a key by overlaying sources from the lowest rank up, so a
// stored value beats a summary and a summary beats an order-derived value.
// Value fields travel together: the highest ranked source holding a value
// supplies the value, its amount, dates and status. Summaries only carry
// RefValue, so an order-derived value shows only where nothing was stored.
type AttributeBag struct {
	entries map[BagKey]*layers
	keys    []BagKey
}

// NewAttributeBag returns an empty bag.
func NewAttributeBag() *AttributeBag {
	return &AttributeBag{entries: make(map[BagKey]*layers)}
}

func (b *AttributeBag) slot(k BagKey) *layers {
	l, ok := b.entries[k]
	if !ok {
		l = &layers{}
		b.entries[k] = l
		b.keys = append(b.keys, k)
	}
	return l
}

// Put records a for k from src. The first value put per source and key is
// kept; Put reports whether a was recorded.
func (b *AttributeBag) Put(src Source, k BagKey, a Attribute) bool {
	l := b.slot(k)
	if l[src-1] != nil {
		return false
	}
	a.PropertyName = k.Property
	l[src-1] = &a
	return true
}

// Sum adds the integer value of a onto the value already held for k and
// src. Values that are not integers are ignored once a value is held.
func (b *AttributeBag) Sum(src Source, k BagKey, a Attribute) {
	l := b.slot(k)
	cur := l[src-1]
	if cur == nil {
		a.PropertyName = k.Property
		l[src-1] = &a
		return
	}
	if !cur.HasValue() || !a.HasValue() {
		return
	}
	x, err := strconv.Atoi(strings.TrimSpace(*cur.Value))
	if err != nil {
		return
	}
	y, err := strconv.Atoi(strings.TrimSpace(*a.Value))
	if err != nil {
		return
	}
	total := strconv.Itoa(x + y)
	cur.Value = &total
}

// Has reports whether src holds a value for k.
func (b *AttributeBag) Has(src Source, k BagKey) bool {
	l, ok := b.entries[k]
	return ok && l[src-1] != nil
}

// Get resolves k across sources.
func (b *AttributeBag) Get(k BagKey) (Attribute, bool) {
	l, ok := b.entries[k]
	if !ok {
		return Attribute{}, false
	}
	out := Attribute{PropertyName: k.Property}
	found := false
	for _, a := range l {
		if a == nil {
			continue
		}
		overlay(&out, *a)
		found = true
	}
	return out, found
}

// Fill overlays the resolved value of k onto dst and reports whether k was held.
func (b *AttributeBag) Fill(k BagKey, dst *Attribute) bool {
	a, ok := b.Get(k)
	if !ok {
		return false
	}
	overlay(dst, a)
	return true
}

// Keys returns the keys held for owner in insertion order.
func (b *AttributeBag) Keys(owner string) []BagKey {
	var out []BagKey
	for _, k := range b.keys {
		if k.Owner == owner {
			out = append(out, k)
		}
	}
	return out
}

// Owners returns the distinct owners in insertion order.
func (b *AttributeBag) Owners() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range b.keys {
		if _, ok := seen[k.Owner]; ok {
			continue
		}
		seen[k.Owner] = struct{}{}
		out = append(out, k.Owner)
	}
	return out
}

// Len returns the number of keys held.
func (b *AttributeBag) Len() int {
	return len(b.keys)
}

// overlay copies src onto dst. A src carrying a value replaces the value
// fields of dst as a whole; RefValue and catalog fields are copied when set.
func overlay(dst *Attribute, src Attribute) {
	if src.Value != nil {
		dst.IndexID = src.IndexID
		dst.Value = src.Value
		dst.DateSubmitted = src.DateSubmitted
		dst.Status = src.Status
		dst.Type = src.Type
		dst.Amount = src.Amount
	}
	if src.RefValue != nil {
		dst.RefValue = src.RefValue
	}
	if src.PropertyID != "" {
		dst.PropertyID = src.PropertyID
	}
	if src.PropertyType != "" {
		dst.PropertyType = src.PropertyType
	}
}

// Merge puts every resolved value of other into b under src.
func (b *AttributeBag) Merge(src Source, other *AttributeBag) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		if a, ok := other.Get(k); ok {
			b.Put(src, k, a)
		}
	}
}
