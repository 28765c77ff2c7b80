// Package tabular reads line items from spreadsheet-like files and writes
// the sample template users start from.
//
// Files carry a header row with the columns Produto, Quant., Preço Unit.
// and, optionally, Observações. A file lacking a required column is
// rejected as a whole; problems inside individual rows are left for the
// ledger import to coerce and report.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/proposta/proposal"
)

// MaxFileSize is the largest file Read accepts.
const MaxFileSize = 10 << 20

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned for files without any non-blank row.
	ErrNoHeader = errors.New("file has no header row")
	// ErrFileTooLarge is returned for files larger than MaxFileSize.
	ErrFileTooLarge = fmt.Errorf("file exceeds %d MiB", MaxFileSize>>20)
)

// Header is the canonical column order.
var Header = []string{
	proposal.ColumnDescription,
	proposal.ColumnQuantity,
	proposal.ColumnUnitPrice,
	proposal.ColumnNotes,
}

// FormatOf returns the format implied by a file name.
func FormatOf(name string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w %q (expected .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
}

// Read parses rows from r, choosing the format from name's extension.
func Read(name string, r io.Reader) ([]proposal.ImportRow, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// Template returns the example rows offered as a starting point.
func Template() []proposal.LineItem {
	return []proposal.LineItem{
		{Description: "Produto A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("100.00"), Notes: "Exemplo de observação"},
		{Description: "Produto B", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("150.00")},
		{Description: "Serviço C", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("10.50"), Notes: "Instalação inclusa"},
	}
}

// Write writes items in the given format.
func Write(w io.Writer, format string, items []proposal.LineItem) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, items)
	case FormatXLSX:
		return WriteXLSX(w, items)
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// readAll reads r fully, failing with ErrFileTooLarge instead of
// silently truncating past MaxFileSize.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func recordOf(item proposal.LineItem) []string {
	return []string{item.Description, item.Quantity.String(), item.UnitPrice.String(), item.Notes}
}

// extract validates the header and maps the remaining records to rows.
// Blank records are skipped; line numbers count every record from 1.
func extract(records [][]string) ([]proposal.ImportRow, error) {
	headerAt := slices.IndexFunc(records, func(rec []string) bool { return !isBlank(rec) })
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	index := make(map[string]int, len(records[headerAt]))
	for i, name := range records[headerAt] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, col := range Header {
			if strings.EqualFold(name, col) {
				if _, seen := index[col]; !seen {
					index[col] = i
				}
			}
		}
	}

	var missing []string
	for _, col := range proposal.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &proposal.MissingColumnsError{Columns: missing}
	}

	var rows []proposal.ImportRow
	for n, rec := range records[headerAt+1:] {
		if isBlank(rec) {
			continue
		}

		row := proposal.ImportRow{Line: headerAt + n + 2}
		cell := func(col string) string {
			i, ok := index[col]
			if !ok {
				return ""
			}
			if i >= len(rec) {
				if slices.Contains(proposal.RequiredColumns, col) {
					row.Missing = append(row.Missing, col)
				}
				return ""
			}
			return rec[i]
		}

		row.Description = cell(proposal.ColumnDescription)
		row.Quantity = cell(proposal.ColumnQuantity)
		row.UnitPrice = cell(proposal.ColumnUnitPrice)
		row.Notes = cell(proposal.ColumnNotes)
		rows = append(rows, row)
	}

	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
