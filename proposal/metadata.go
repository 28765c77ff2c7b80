package proposal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/proposta/issuer"
)

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a normalized date, so NewDate(2025, 2, 30) is March 2nd.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO "2006-01-02" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Default commercial terms offered by a new proposal.
const (
	DefaultValidity     = "15 dias"
	DefaultPaymentTerm  = "À vista"
	DefaultDeliveryTerm = "Imediato"
)

// Metadata holds the client-facing, editable proposal fields.
type Metadata struct {
	Client       string
	Date         Date
	Validity     string
	PaymentTerm  string
	DeliveryTerm string
}

// NewMetadata returns metadata with the default terms, dated on.
func NewMetadata(on Date) Metadata {
	return Metadata{
		Date:         on,
		Validity:     DefaultValidity,
		PaymentTerm:  DefaultPaymentTerm,
		DeliveryTerm: DefaultDeliveryTerm,
	}
}

// Snapshot is an immutable projection of a ledger together with the
// proposal metadata and issuer profile. It is what the renderer consumes.
type Snapshot struct {
	Metadata   Metadata
	Issuer     issuer.Profile
	Items      []LineItem
	GrandTotal decimal.Decimal
}

// IsEmpty reports whether the snapshot has no line items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
