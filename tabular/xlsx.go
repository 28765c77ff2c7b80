package tabular

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/robinvdvleuten/proposta/proposal"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Itens"

// ReadXLSX parses the active worksheet of an XLSX workbook. Cells are read
// as stored, so a number formatted as currency or with thousands
// separators still yields its plain value.
func ReadXLSX(r io.Reader) ([]proposal.ImportRow, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		if sheets := f.GetSheetList(); len(sheets) > 0 {
			sheet = sheets[0]
		}
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return extract(records)
}

// WriteXLSX writes a workbook with one sheet holding the header and items.
// Quantities and prices are stored as numbers.
func WriteXLSX(w io.Writer, items []proposal.LineItem) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			item.Description,
			item.Quantity.InexactFloat64(),
			item.UnitPrice.InexactFloat64(),
			item.Notes,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
