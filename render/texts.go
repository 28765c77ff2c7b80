package render

// Fixed pt-BR document texts.
const (
	TitleText       = "Proposta Comercial"
	ClientLabel     = "A/C"
	NoItemsText     = "Nenhum item adicionado à proposta."
	GrandTotalLabel = "Total Geral"
	TaxDisclaimer   = "Nos preços estão incluídos todos os custos indispensáveis à perfeita execução do objeto."

	issuerHeading  = "Dados da Empresa"
	contactHeading = "Dados para Contato"
	bankHeading    = "Dados Bancários"
	termsHeading   = "Condições Comerciais"
	pageFooter     = "Página %d de {nb}"
)

// Table column titles, in document order.
const (
	colProduct   = "Produto"
	colQuantity  = "Quant."
	colUnitPrice = "Preço Unit."
	colTotal     = "Total"
	colNotes     = "Observações"
)

type field struct {
	label, value string
}

func issuerFields(lines ...field) []field {
	kept := lines[:0:0]
	for _, l := range lines {
		if l.value != "" {
			kept = append(kept, l)
		}
	}
	return kept
}
