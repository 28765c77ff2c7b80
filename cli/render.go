package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/session"
)

// MetadataFlags are the proposal fields settable from the command line.
type MetadataFlags struct {
	Client   string `help:"Client name shown after A/C." short:"C" required:""`
	Date     string `help:"Proposal date as YYYY-MM-DD (defaults to today)."`
	Validity string `help:"Proposal validity." default:"15 dias"`
	Payment  string `help:"Payment terms." default:"À vista"`
	Delivery string `help:"Delivery terms." default:"Imediato"`
}

func (f MetadataFlags) metadata(today proposal.Date) (proposal.Metadata, error) {
	m := proposal.Metadata{
		Client:       f.Client,
		Date:         today,
		Validity:     f.Validity,
		PaymentTerm:  f.Payment,
		DeliveryTerm: f.Delivery,
	}
	if f.Date != "" {
		d, err := proposal.ParseDate(f.Date)
		if err != nil {
			return proposal.Metadata{}, err
		}
		m.Date = d
	}
	return m, nil
}

// DocumentFlags control where and how the PDF is written.
type DocumentFlags struct {
	Out        string `help:"Output file or directory." short:"o" default:"." type:"path"`
	Location   string `help:"City printed before the date (defaults to the issuer's city)."`
	NoCompress bool   `help:"Write uncompressed PDF streams."`
}

func (f DocumentFlags) renderer(logger *slog.Logger) *render.Renderer {
	return render.New(
		render.WithLogger(logger),
		render.WithLocation(f.Location),
		render.WithCompression(!f.NoCompress),
	)
}

type RenderCmd struct {
	File FileOrStdin `help:"CSV or XLSX item file (use '-' for CSV on stdin, or omit for stdin)." arg:"" optional:""`
	MetadataFlags
	DocumentFlags
	NoSummary bool `help:"Do not print the text summary."`
}

func (cmd *RenderCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.instrument(ctx, fmt.Sprintf("render %s", cmd.File.DisplayName()))
	defer reportTelemetry()

	profile, err := globals.profile()
	if err != nil {
		return err
	}
	logger := globals.logger(ctx.Stderr)

	sess := session.New(
		session.WithIssuer(profile),
		session.WithLedger(proposal.New()),
		session.WithLogger(logger),
		session.WithRenderer(cmd.renderer(logger)),
	)

	meta, err := cmd.metadata(sess.Metadata().Date)
	if err != nil {
		return err
	}
	sess.SetMetadata(meta)

	if err := importFile(ctx.Stderr, sess, &cmd.File); err != nil {
		return NewCommandError(reportError(ctx.Stderr, err), err)
	}

	doc, err := sess.Generate(runCtx)
	if err != nil {
		return NewCommandError(reportError(ctx.Stderr, err), err)
	}

	path, err := writeDocument(cmd.Out, doc)
	if err != nil {
		return err
	}

	if !cmd.NoSummary {
		_, _ = fmt.Fprintln(ctx.Stdout, doc.Summary)
	}
	reportImages(ctx.Stderr, doc.Images)
	printSuccess(ctx.Stdout, fmt.Sprintf("Proposal written to %s", pathStyle.Render(path)))

	return nil
}

// importFile replaces the session items with the rows of f.
func importFile(w io.Writer, sess *session.Session, f *FileOrStdin) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	report, err := sess.Import(f.Filename, rc)
	if err != nil {
		return err
	}
	reportImport(w, f.DisplayName(), report)
	return nil
}

// writeDocument writes doc to out, or into out when it is a directory.
func writeDocument(out string, doc session.Document) (string, error) {
	if out == "" {
		out = "."
	}
	path := out
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		path = filepath.Join(out, doc.Filename)
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}

// reportImages warns about configured images that could not be embedded.
func reportImages(w io.Writer, images []render.ImageResult) {
	for _, img := range images {
		if img.Status == render.ImageOmitted && img.Path != "" {
			printWarningf(w, "%s omitted: %s", img.Name, img.Reason)
		}
	}
}
