package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/proposal"
)

// Page geometry in millimetres (A4 portrait).
const (
	margin       = 20.0
	lineHeight   = 5.5
	cellLine     = 5.0
	logoWidth    = 40.0
	logoSpace    = 12.0
	sigWidth     = 50.0
	sigSpace     = 20.0
	sigRuleWidth = 70.0
	fontFamily   = "Helvetica"
)

type column struct {
	title string
	width float64
	align string
}

// Columns sum to the 170mm content width.
var columns = []column{
	{colProduct, 50, "L"},
	{colQuantity, 18, "C"},
	{colUnitPrice, 28, "R"},
	{colTotal, 28, "R"},
	{colNotes, 46, "L"},
}

type document struct {
	pdf          *gofpdf.Fpdf
	tr           func(string) string
	snap         proposal.Snapshot
	headerHeight float64
}

// Document renders snap as PDF bytes and reports what happened to the
// optional images.
func (r *Renderer) Document(snap proposal.Snapshot) ([]byte, []ImageResult, error) {
	generated := r.clock()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(generated)
	pdf.SetTitle(fmt.Sprintf("%s - %s", TitleText, snap.Metadata.Client), true)
	pdf.SetAuthor(snap.Issuer.LegalName, true)
	pdf.SetCreator("proposta", false)
	pdf.AliasNbPages("")

	d := &document{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		snap: snap,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, d.tr(fmt.Sprintf(pageFooter, pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	logoRes, logo := loadImage(LogoImage, snap.Issuer.Images.Logo)
	sigRes, sig := loadImage(SignatureImage, snap.Issuer.Images.Signature)
	for _, res := range []ImageResult{logoRes, sigRes} {
		if res.Status == ImageOmitted {
			r.logger.Debug("optional image omitted", "image", res.Name, "path", res.Path, "reason", res.Reason)
		}
	}

	pdf.AddPage()
	d.titleBlock(logo)
	d.issuerBlock()
	d.contactBlock()
	d.bankBlock()
	d.clientLine()
	d.itemTable()
	d.totalLine()
	d.termsBlock()
	d.dateLine(r.dateLocation(snap), snap.Metadata.Date, proposal.DateOf(generated))
	d.signatureBlock(sig)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, nil, fmt.Errorf("failed to render document: %w", err)
	}

	return buf.Bytes(), []ImageResult{logoRes, sigRes}, nil
}

func (r *Renderer) dateLocation(snap proposal.Snapshot) string {
	if r.location != "" {
		return r.location
	}
	return snap.Issuer.Address.City
}

func (d *document) image(name string, img *loadedImage, width float64) {
	height := width * img.ratio
	_, pageHeight := d.pdf.GetPageSize()
	if d.pdf.GetY()+height > pageHeight-margin {
		d.pdf.AddPage()
	}

	y := d.pdf.GetY()
	opts := gofpdf.ImageOptions{ImageType: img.kind}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	d.pdf.ImageOptions(name, margin, y, width, height, false, opts, 0, "")
	d.pdf.SetY(y + height)
}

func (d *document) titleBlock(logo *loadedImage) {
	if logo != nil {
		d.image(LogoImage, logo, logoWidth)
		d.pdf.Ln(4)
	} else {
		d.pdf.Ln(logoSpace)
	}

	d.pdf.SetFont(fontFamily, "B", 16)
	d.pdf.CellFormat(0, 10, d.tr(TitleText), "", 1, "C", false, 0, "")
	d.pdf.Ln(6)
}

func (d *document) heading(text string) {
	d.pdf.SetFont(fontFamily, "B", 12)
	d.pdf.CellFormat(0, 8, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *document) fields(fields []field) {
	for _, f := range fields {
		d.paragraph(f.label + ": " + f.value)
	}
}

func (d *document) issuerBlock() {
	p := d.snap.Issuer
	d.heading(issuerHeading)
	d.fields(issuerFields(
		field{"Nome da Empresa", p.LegalName},
		field{"CNPJ", p.CNPJ},
		field{"IE", p.StateRegistration},
		field{"IM", p.MunicipalRegistration},
		field{"Endereço", p.Address.Line()},
		field{"Cidade/UF", p.Address.CityState()},
		field{"CEP", p.Address.PostalCode},
	))
	d.pdf.Ln(4)
}

func (d *document) contactBlock() {
	c := d.snap.Issuer.Contact
	d.heading(contactHeading)
	d.fields(issuerFields(
		field{"E-mail", c.Email},
		field{"Telefone", c.Phone},
	))
	d.pdf.Ln(4)
}

func (d *document) bankBlock() {
	b := d.snap.Issuer.Bank
	d.heading(bankHeading)
	d.fields(issuerFields(
		field{"Banco", b.Name},
		field{"Agência", b.Branch},
		field{"Conta", b.Account},
		field{"PIX", b.PixKey},
	))
	d.pdf.Ln(6)
}

func (d *document) clientLine() {
	d.pdf.SetFont(fontFamily, "B", 11)
	d.pdf.MultiCell(0, lineHeight, d.tr(ClientLabel+": "+d.snap.Metadata.Client), "", "L", false)
	d.pdf.Ln(4)
}

func (d *document) itemTable() {
	if d.snap.IsEmpty() {
		d.pdf.SetFont(fontFamily, "I", 10)
		d.pdf.MultiCell(0, lineHeight, d.tr(NoItemsText), "", "L", false)
		return
	}

	d.pdf.SetFont(fontFamily, "B", 9)
	_, d.headerHeight = d.layoutRow(columnTitles(), 0)
	d.pdf.SetFont(fontFamily, "", 9)
	_, first := d.layoutRow(rowCells(d.snap.Items[0]), d.maxRowLines())

	// Keep the header together with the first row.
	if d.pdf.GetY()+d.headerHeight+first > d.bottom() {
		d.pdf.AddPage()
	}

	d.tableHeader()
	for _, item := range d.snap.Items {
		d.tableRow(rowCells(item))
	}
}

func columnTitles() []string {
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	return titles
}

func (d *document) bottom() float64 {
	_, pageHeight := d.pdf.GetPageSize()
	return pageHeight - margin
}

// maxRowLines is the number of text lines a row may hold while still
// fitting below a repeated header on an empty page.
func (d *document) maxRowLines() int {
	usable := d.bottom() - margin - d.headerHeight - 2
	return max(1, int(usable/cellLine))
}

func (d *document) tableHeader() {
	d.pdf.SetFont(fontFamily, "B", 9)
	d.pdf.SetFillColor(128, 128, 128)
	d.pdf.SetTextColor(255, 255, 255)
	texts, height := d.layoutRow(columnTitles(), 0)
	d.drawRow(texts, height, "FD")
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFont(fontFamily, "", 9)
}

// tableRow draws one bordered row whose height fits the tallest wrapped
// cell. Rows that would cross the bottom margin move to a new page, where
// the header is repeated.
func (d *document) tableRow(cells []string) {
	texts, height := d.layoutRow(cells, d.maxRowLines())
	if d.pdf.GetY()+height > d.bottom() {
		d.pdf.AddPage()
		d.tableHeader()
	}
	d.drawRow(texts, height, "D")
}

// layoutRow wraps each cell to its column width with the current font and
// returns the translated texts and the row height. When maxLines is
// positive, longer cells are cut to maxLines lines ending in an ellipsis.
func (d *document) layoutRow(cells []string, maxLines int) ([]string, float64) {
	texts := make([]string, len(cells))
	lines := 1
	for i, cell := range cells {
		split := d.pdf.SplitLines([]byte(d.tr(cell)), columns[i].width)
		if maxLines > 0 && len(split) > maxLines {
			split = d.clip(split, maxLines, columns[i].width)
		}
		texts[i] = string(bytes.Join(split, []byte("\n")))
		lines = max(lines, len(split))
	}
	return texts, float64(lines)*cellLine + 2
}

func (d *document) clip(lines [][]byte, n int, width float64) [][]byte {
	const ellipsis = "..."
	room := width - 2*d.pdf.GetCellMargin()
	last := string(lines[n-1])
	for last != "" && d.pdf.GetStringWidth(last+ellipsis) > room {
		last = last[:len(last)-1]
	}
	return append(lines[:n-1:n-1], []byte(last+ellipsis))
}

func (d *document) drawRow(texts []string, height float64, style string) {
	x, y := margin, d.pdf.GetY()
	for i, c := range columns {
		d.pdf.Rect(x, y, c.width, height, style)
		d.pdf.SetXY(x, y+1)
		d.pdf.MultiCell(c.width, cellLine, texts[i], "", c.align, false)
		x += c.width
	}
	d.pdf.SetXY(margin, y+height)
}

func (d *document) totalLine() {
	d.pdf.Ln(3)
	d.pdf.SetFont(fontFamily, "B", 11)
	text := fmt.Sprintf("%s: %s", GrandTotalLabel, locale.FormatMoney(d.snap.GrandTotal))
	d.pdf.CellFormat(0, 8, d.tr(text), "", 1, "R", false, 0, "")
	d.pdf.Ln(6)
}

func (d *document) termsBlock() {
	d.heading(termsHeading)
	d.fields(termFields(d.snap.Metadata))
	d.pdf.Ln(12)
}

func (d *document) dateLine(city string, date, generated proposal.Date) {
	if date.IsZero() {
		date = generated
	}
	text := locale.FormatDate(date.Year, date.Month, date.Day) + "."
	if city != "" {
		text = city + ", " + text
	}
	d.paragraph(text)
	d.pdf.Ln(10)
}

func (d *document) signatureBlock(sig *loadedImage) {
	if sig != nil {
		d.image(SignatureImage, sig, sigWidth)
	} else {
		d.pdf.Ln(sigSpace)
	}

	y := d.pdf.GetY()
	d.pdf.Line(margin, y, margin+sigRuleWidth, y)
	d.pdf.Ln(2)

	s := d.snap.Issuer.Signatory
	d.paragraph(s.Name)
	if s.CPF != "" {
		d.paragraph("CPF: " + s.CPF)
	}
}
