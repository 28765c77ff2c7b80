package proposal

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ID is the stable identity token of a line item. It is assigned once when
// the item is created and survives every edit cycle, so an edited row can
// be matched back to its slot no matter how the sequence moved around it.
type ID string

// NewID returns a fresh random identity token.
func NewID() ID {
	return ID(uuid.NewString())
}

// LineItem is one product or service row of a proposal.
type LineItem struct {
	ID          ID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Notes       string
}

// Total returns Quantity * UnitPrice. It is always derived, never stored.
func (i LineItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// NewItem builds a line item with a fresh identity. Negative quantities and
// prices are clamped to zero.
func NewItem(description string, quantity, unitPrice decimal.Decimal, notes string) LineItem {
	return LineItem{
		ID:          NewID(),
		Description: description,
		Quantity:    Clamp(quantity),
		UnitPrice:   Clamp(unitPrice),
		Notes:       notes,
	}
}

// blank returns an empty row: no description, quantity 1, price 0.
func blank(id ID) LineItem {
	return LineItem{
		ID:        id,
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
	}
}

// DefaultItems returns the two rows a fresh proposal starts with.
func DefaultItems() []LineItem {
	return []LineItem{
		NewItem("Produto A", decimal.NewFromInt(1), decimal.NewFromInt(100), ""),
		NewItem("Produto B", decimal.NewFromInt(2), decimal.NewFromInt(150), ""),
	}
}

// Edit carries the edited field values for one existing row.
type Edit struct {
	ID          ID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Notes       string
}
