// Package render turns a proposal snapshot into a plain-text summary and a
// paginated PDF document.
//
// The document has a fixed section order: title, issuer identity, contact,
// banking, client reference, item table, grand total, commercial terms,
// date line and signature. Logo and signature images are optional; when one
// cannot be loaded the section keeps an empty space instead and the outcome
// is reported in Result.Images.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/telemetry"
)

// ContentType is the MIME type of rendered documents.
const ContentType = "application/pdf"

// ErrUnsupportedLocale is returned for any locale other than pt-BR.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Renderer renders snapshots. It holds only configuration and may be shared.
type Renderer struct {
	locale   string
	location string
	compress bool
	clock    func() time.Time
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocale selects the output locale. Only locale.PTBR is supported.
func WithLocale(tag string) Option {
	return func(r *Renderer) { r.locale = tag }
}

// WithLocation sets the city printed on the date line. Defaults to the
// issuer's city.
func WithLocation(city string) Option {
	return func(r *Renderer) { r.location = city }
}

// WithCompression toggles PDF stream compression (on by default).
func WithCompression(compress bool) Option {
	return func(r *Renderer) { r.compress = compress }
}

// WithClock sets the source of the generation time.
func WithClock(clock func() time.Time) Option {
	return func(r *Renderer) { r.clock = clock }
}

// WithLogger sets the logger used for omitted images.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		locale:   locale.PTBR,
		compress: true,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Result is the output of Render.
type Result struct {
	Summary  string
	Document []byte
	Images   []ImageResult
}

// Render produces the summary and the PDF document for snap.
func (r *Renderer) Render(ctx context.Context, snap proposal.Snapshot) (Result, error) {
	if r.locale != locale.PTBR {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedLocale, r.locale)
	}

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("render (%d items)", len(snap.Items)))
	defer timer.End()

	summaryTimer := timer.Child("render.summary")
	summary := Summary(snap)
	summaryTimer.End()

	pdfTimer := timer.Child("render.pdf")
	doc, images, err := r.Document(snap)
	pdfTimer.End()
	if err != nil {
		return Result{}, err
	}

	return Result{Summary: summary, Document: doc, Images: images}, nil
}

// Now returns the renderer's notion of the current time.
func (r *Renderer) Now() time.Time {
	return r.clock()
}

// Filename returns "proposta_<client>_<YYYYMMDD>.pdf" where spaces in the
// client name become underscores and generated is the generation date.
func Filename(client string, generated time.Time) string {
	name := strings.TrimSpace(client)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator {
			return '-'
		}
		return r
	}, name)
	return fmt.Sprintf("proposta_%s_%s.pdf", name, generated.Format("20060102"))
}
