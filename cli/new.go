package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/output"
	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/session"
)

// NewCmd walks the user through the proposal with terminal forms.
type NewCmd struct {
	DocumentFlags
}

func (cmd *NewCmd) Run(ctx *kong.Context, globals *Globals) error {
	if !isTerminal() {
		return errors.New("new needs an interactive terminal, use `proposta render` with an item file instead")
	}

	runCtx, reportTelemetry := globals.instrument(ctx, "new")
	defer reportTelemetry()

	profile, err := globals.profile()
	if err != nil {
		return err
	}
	logger := globals.logger(ctx.Stderr)
	styles := output.NewStyles(ctx.Stdout)

	sess := session.New(
		session.WithIssuer(profile),
		session.WithLedger(proposal.New()),
		session.WithLogger(logger),
		session.WithRenderer(cmd.renderer(logger)),
	)

	meta, err := askMetadata(sess.Metadata())
	if err != nil {
		return err
	}
	sess.SetMetadata(meta)

	for n := 1; ; n++ {
		edit, more, err := askItem(n)
		if err != nil {
			return err
		}
		edit.ID = sess.AddItem().ID
		if err := sess.UpdateItem(edit); err != nil {
			return err
		}
		printInfof(ctx.Stdout, "Total parcial: %s", styles.Money(locale.FormatMoney(sess.Total())))
		if !more {
			break
		}
	}

	_, _ = fmt.Fprintln(ctx.Stdout)
	_, _ = fmt.Fprintln(ctx.Stdout, sess.Summary())

	generate, err := promptYesNo("Gerar o PDF?", true)
	if err != nil {
		return err
	}
	if !generate {
		printInfof(ctx.Stdout, "Nothing written")
		return nil
	}

	doc, err := sess.Generate(runCtx)
	if err != nil {
		return NewCommandError(reportError(ctx.Stderr, err), err)
	}
	path, err := writeDocument(cmd.Out, doc)
	if err != nil {
		return err
	}

	reportImages(ctx.Stderr, doc.Images)
	printSuccess(ctx.Stdout, fmt.Sprintf("Proposal written to %s", pathStyle.Render(path)))
	return nil
}

func askMetadata(defaults proposal.Metadata) (proposal.Metadata, error) {
	flags := MetadataFlags{
		Date:     defaults.Date.String(),
		Validity: defaults.Validity,
		Payment:  defaults.PaymentTerm,
		Delivery: defaults.DeliveryTerm,
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Cliente (A/C)").Value(&flags.Client).Validate(requireText),
		huh.NewInput().Title("Data").Description("AAAA-MM-DD").Value(&flags.Date).Validate(validateDate),
		huh.NewInput().Title("Validade da proposta").Value(&flags.Validity),
		huh.NewInput().Title("Condições de pagamento").Value(&flags.Payment),
		huh.NewInput().Title("Prazo de entrega").Value(&flags.Delivery),
	))
	if err := form.Run(); err != nil {
		return proposal.Metadata{}, fmt.Errorf("failed to read proposal details: %w", err)
	}

	return flags.metadata(defaults.Date)
}

func askItem(n int) (proposal.Edit, bool, error) {
	var (
		description, notes string
		quantity           = "1"
		unitPrice          string
		more               bool
	)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(fmt.Sprintf("Item %d: produto", n)).Value(&description),
		huh.NewInput().Title("Quantidade").Value(&quantity).Validate(validateAmount),
		huh.NewInput().Title("Preço unitário (R$)").Placeholder("0,00").Value(&unitPrice).Validate(validateAmount),
		huh.NewInput().Title("Observações").Value(&notes),
		huh.NewConfirm().Title("Adicionar outro item?").Affirmative("Sim").Negative("Não").Value(&more),
	))
	if err := form.Run(); err != nil {
		return proposal.Edit{}, false, fmt.Errorf("failed to read item: %w", err)
	}

	qty, _ := proposal.CoerceAmount(quantity)
	price, _ := proposal.CoerceAmount(unitPrice)
	return proposal.Edit{
		Description: strings.TrimSpace(description),
		Quantity:    qty,
		UnitPrice:   price,
		Notes:       strings.TrimSpace(notes),
	}, more, nil
}

func requireText(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("obrigatório")
	}
	return nil
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := proposal.ParseDate(strings.TrimSpace(s))
	return err
}

// validateAmount accepts blanks, which become zero, and non-negative
// amounts in either pt-BR or plain decimal notation.
func validateAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := proposal.ParseAmount(s)
	if err != nil {
		return errors.New("valor inválido")
	}
	if d.IsNegative() {
		return errors.New("o valor não pode ser negativo")
	}
	return nil
}
