package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/robinvdvleuten/proposta/proposal"
)

// ReadCSV parses a CSV file. The separator is "," or ";", whichever
// appears more often in the first line.
func ReadCSV(r io.Reader) ([]proposal.ImportRow, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffSeparator(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return extract(records)
}

// WriteCSV writes the header and one record per item.
func WriteCSV(w io.Writer, items []proposal.LineItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write(recordOf(item)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sniffSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
