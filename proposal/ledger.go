// Package proposal implements the line-item ledger of a commercial proposal.
//
// A Ledger holds an ordered, mutable sequence of LineItems for one editing
// session. Every row carries a stable identity token so that edits coming
// back from an interactive surface are matched by identity, never by
// position. Quantities and prices are decimals clamped at zero; totals are
// exact sums and are only rounded when formatted for display.
//
// Example usage:
//
//	l := proposal.NewDefault()
//	item := l.AddItem()
//	_ = l.ApplyEdits(edits) // one Edit per stored item, keyed by ID
//	snap := l.Snapshot(meta, issuer.Default())
package proposal

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/proposta/issuer"
)

// Ledger is the mutable item collection of one proposal. It is owned by a
// single session and is not safe for concurrent use.
type Ledger struct {
	items []LineItem
	newID func() ID
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithItems seeds the ledger. Items without an ID receive one.
func WithItems(items ...LineItem) Option {
	return func(l *Ledger) {
		l.items = append(l.items, items...)
	}
}

// WithIDGenerator replaces the identity token source.
func WithIDGenerator(fn func() ID) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

// New creates a ledger. Without WithItems it starts empty.
func New(opts ...Option) *Ledger {
	l := &Ledger{newID: NewID}
	for _, opt := range opts {
		opt(l)
	}
	for i := range l.items {
		if l.items[i].ID == "" {
			l.items[i].ID = l.newID()
		}
		l.items[i].Quantity = Clamp(l.items[i].Quantity)
		l.items[i].UnitPrice = Clamp(l.items[i].UnitPrice)
	}
	return l
}

// NewDefault creates a ledger seeded with DefaultItems.
func NewDefault(opts ...Option) *Ledger {
	return New(append([]Option{WithItems(DefaultItems()...)}, opts...)...)
}

// Len returns the number of items.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy of the current items in order.
func (l *Ledger) Items() []LineItem {
	return slices.Clone(l.items)
}

// Item returns the item with the given identity.
func (l *Ledger) Item(id ID) (LineItem, bool) {
	i := l.index(id)
	if i < 0 {
		return LineItem{}, false
	}
	return l.items[i], true
}

// Total returns the exact sum of every line total.
func (l *Ledger) Total() decimal.Decimal {
	return sumTotals(l.items)
}

// AddItem appends a blank item and returns it.
func (l *Ledger) AddItem() LineItem {
	item := blank(l.newID())
	l.items = append(l.items, item)
	return item
}

// CanRemove reports whether RemoveLast would succeed. Surfaces use it to
// disable their remove control.
func (l *Ledger) CanRemove() bool {
	return len(l.items) > 1
}

// RemoveLast drops the last item. A ledger keeps at least one row: when one
// or zero items remain it returns ErrMinimumItems and changes nothing.
func (l *Ledger) RemoveLast() error {
	if !l.CanRemove() {
		return ErrMinimumItems
	}
	l.items[len(l.items)-1] = LineItem{}
	l.items = l.items[:len(l.items)-1]
	return nil
}

// Clear resets the ledger to a single blank item with a new identity.
func (l *Ledger) Clear() {
	l.items = []LineItem{blank(l.newID())}
}

// ApplyEdits overwrites the fields of every stored item with the edit that
// carries its identity. The payload must cover each item exactly once;
// otherwise an *EditMismatchError is returned and nothing changes.
func (l *Ledger) ApplyEdits(edits []Edit) error {
	if len(edits) != len(l.items) {
		return &EditMismatchError{Want: len(l.items), Got: len(edits)}
	}

	byID := make(map[ID]Edit, len(edits))
	for _, e := range edits {
		if _, dup := byID[e.ID]; dup {
			return &EditMismatchError{Want: len(l.items), Got: len(edits), ID: e.ID}
		}
		byID[e.ID] = e
	}
	for _, item := range l.items {
		if _, ok := byID[item.ID]; !ok {
			return &EditMismatchError{Want: len(l.items), Got: len(edits), ID: missingID(edits, l.items)}
		}
	}

	for i, item := range l.items {
		e := byID[item.ID]
		l.items[i] = LineItem{
			ID:          item.ID,
			Description: e.Description,
			Quantity:    Clamp(e.Quantity),
			UnitPrice:   Clamp(e.UnitPrice),
			Notes:       e.Notes,
		}
	}

	return nil
}

// Snapshot projects the ledger into an immutable Snapshot. The ledger is
// not modified.
func (l *Ledger) Snapshot(meta Metadata, profile issuer.Profile) Snapshot {
	items := l.Items()
	return Snapshot{
		Metadata:   meta,
		Issuer:     profile,
		Items:      items,
		GrandTotal: sumTotals(items),
	}
}

func (l *Ledger) index(id ID) int {
	return slices.IndexFunc(l.items, func(item LineItem) bool {
		return item.ID == id
	})
}

// missingID returns the first edit ID that matches no stored item.
func missingID(edits []Edit, items []LineItem) ID {
	for _, e := range edits {
		if !slices.ContainsFunc(items, func(item LineItem) bool { return item.ID == e.ID }) {
			return e.ID
		}
	}
	return ""
}

func sumTotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}
