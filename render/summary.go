package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/proposal"
)

// Summary renders the snapshot as aligned plain text, suitable for inline
// display before the document is produced. It carries the same rows and
// totals as the document.
func Summary(snap proposal.Snapshot) string {
	var b strings.Builder

	b.WriteString(TitleText)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s: %s\n", ClientLabel, snap.Metadata.Client)
	if !snap.Metadata.Date.IsZero() {
		d := snap.Metadata.Date
		fmt.Fprintf(&b, "Data: %s\n", locale.FormatDate(d.Year, d.Month, d.Day))
	}
	b.WriteByte('\n')

	if snap.IsEmpty() {
		b.WriteString(NoItemsText)
		b.WriteByte('\n')
	} else {
		writeTable(&b, snap.Items)
	}

	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s: %s\n", GrandTotalLabel, locale.FormatMoney(snap.GrandTotal))
	b.WriteByte('\n')
	for _, f := range termFields(snap.Metadata) {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}

	return b.String()
}

// termFields lists the commercial terms in document order.
func termFields(m proposal.Metadata) []field {
	return []field{
		{"Validade da Proposta", m.Validity},
		{"Prazo de Pagamento", m.PaymentTerm},
		{"Prazo de Entrega", m.DeliveryTerm},
		{"Impostos", TaxDisclaimer},
	}
}

// rowCells formats one item in column order.
func rowCells(item proposal.LineItem) []string {
	return []string{
		item.Description,
		locale.FormatQuantity(item.Quantity),
		locale.FormatMoney(item.UnitPrice),
		locale.FormatMoney(item.Total()),
		item.Notes,
	}
}

func writeTable(b *strings.Builder, items []proposal.LineItem) {
	header := []string{colProduct, colQuantity, colUnitPrice, colTotal, colNotes}
	// Text columns pad right, numeric columns pad left.
	rightAligned := []bool{false, true, true, true, false}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, rowCells(item))
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if rightAligned[i] {
				parts[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				parts[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteByte('\n')
	}

	writeRow(header)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(rule, "  "))
	b.WriteByte('\n')
	for _, row := range rows {
		writeRow(row)
	}
}
