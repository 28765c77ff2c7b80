package proposal

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Column names of the tabular import and export format.
const (
	ColumnDescription = "Produto"
	ColumnQuantity    = "Quant."
	ColumnUnitPrice   = "Preço Unit."
	ColumnNotes       = "Observações"
)

// RequiredColumns lists the columns an import source must provide.
var RequiredColumns = []string{ColumnDescription, ColumnQuantity, ColumnUnitPrice}

// ImportRow holds the raw cell values of one imported row.
type ImportRow struct {
	// Line is the 1-based source row number, header included. Zero if unknown.
	Line        int
	Description string
	Quantity    string
	UnitPrice   string
	Notes       string
	// Missing names required columns for which this row had no cell at all.
	Missing []string
}

// IssueKind classifies a RowIssue.
type IssueKind string

const (
	// IssueMissing means the row had no cell for a required column.
	IssueMissing IssueKind = "missing"
	// IssueCoerced means a numeric cell was unusable and became zero.
	IssueCoerced IssueKind = "coerced"
)

// RowIssue reports a recovered problem in an imported row.
type RowIssue struct {
	Line   int
	Column string
	Kind   IssueKind
	Raw    string
}

// ImportReport summarizes an import.
type ImportReport struct {
	Imported int
	Issues   []RowIssue
}

// ImportFrom replaces the ledger contents with fresh items built from rows.
// Malformed values never abort the import: unusable numbers become zero,
// absent text becomes empty, and each recovery is listed in the report.
func (l *Ledger) ImportFrom(rows []ImportRow) ImportReport {
	var report ImportReport
	items := make([]LineItem, 0, len(rows))

	for _, row := range rows {
		for _, col := range row.Missing {
			report.Issues = append(report.Issues, RowIssue{Line: row.Line, Column: col, Kind: IssueMissing})
		}

		qty, ok := CoerceAmount(row.Quantity)
		if !ok && !isMissing(row, ColumnQuantity) {
			report.Issues = append(report.Issues, RowIssue{Line: row.Line, Column: ColumnQuantity, Kind: IssueCoerced, Raw: row.Quantity})
		}
		price, ok := CoerceAmount(row.UnitPrice)
		if !ok && !isMissing(row, ColumnUnitPrice) {
			report.Issues = append(report.Issues, RowIssue{Line: row.Line, Column: ColumnUnitPrice, Kind: IssueCoerced, Raw: row.UnitPrice})
		}

		items = append(items, LineItem{
			ID:          l.newID(),
			Description: strings.TrimSpace(row.Description),
			Quantity:    qty,
			UnitPrice:   price,
			Notes:       strings.TrimSpace(row.Notes),
		})
	}

	l.items = items
	report.Imported = len(items)
	return report
}

func isMissing(row ImportRow, column string) bool {
	return slices.Contains(row.Missing, column)
}
