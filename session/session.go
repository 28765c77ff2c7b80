// Package session owns the state of one proposal-editing session: a ledger,
// the proposal metadata and access to the issuer profile. A surface (the
// terminal form or the web server) creates one Session per user and drives
// every interaction through it.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/proposta/issuer"
	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/tabular"
)

// Session is not safe for concurrent use; callers serialize interactions.
type Session struct {
	ledger   *proposal.Ledger
	meta     proposal.Metadata
	issuer   func() issuer.Profile
	renderer *render.Renderer
	logger   *slog.Logger
	clock    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLedger replaces the default two-item ledger.
func WithLedger(l *proposal.Ledger) Option {
	return func(s *Session) { s.ledger = l }
}

// WithIssuer fixes the issuer profile.
func WithIssuer(p issuer.Profile) Option {
	return func(s *Session) { s.issuer = func() issuer.Profile { return p } }
}

// WithIssuerSource reads the issuer profile from fn on every snapshot, so a
// shared profile can be swapped while sessions are open.
func WithIssuerSource(fn func() issuer.Profile) Option {
	return func(s *Session) { s.issuer = fn }
}

// WithRenderer sets the document renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock sets the clock used for the default proposal date.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// New creates a session dated today with the default items and terms.
func New(opts ...Option) *Session {
	s := &Session{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = proposal.NewDefault()
	}
	if s.issuer == nil {
		WithIssuer(issuer.Default())(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.renderer == nil {
		s.renderer = render.New(render.WithLogger(s.logger), render.WithClock(s.clock))
	}
	s.meta = proposal.NewMetadata(proposal.DateOf(s.clock()))
	return s
}

// Items returns the current items.
func (s *Session) Items() []proposal.LineItem { return s.ledger.Items() }

// Total returns the grand total.
func (s *Session) Total() decimal.Decimal { return s.ledger.Total() }

// CanRemove reports whether RemoveLast is allowed.
func (s *Session) CanRemove() bool { return s.ledger.CanRemove() }

// AddItem appends a blank item.
func (s *Session) AddItem() proposal.LineItem { return s.ledger.AddItem() }

// RemoveLast removes the last item; see proposal.Ledger.RemoveLast.
func (s *Session) RemoveLast() error { return s.ledger.RemoveLast() }

// Clear resets the items to a single blank row.
func (s *Session) Clear() { s.ledger.Clear() }

// ApplyEdits applies a full edit payload.
func (s *Session) ApplyEdits(edits []proposal.Edit) error { return s.ledger.ApplyEdits(edits) }

// UpdateItem edits a single item, leaving the others as they are.
func (s *Session) UpdateItem(e proposal.Edit) error {
	items := s.ledger.Items()
	edits := make([]proposal.Edit, len(items))
	found := false
	for i, item := range items {
		if item.ID == e.ID {
			edits[i] = e
			found = true
			continue
		}
		edits[i] = proposal.Edit{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Notes:       item.Notes,
		}
	}
	if !found {
		return &proposal.EditMismatchError{Want: len(items), Got: len(items), ID: e.ID}
	}
	return s.ledger.ApplyEdits(edits)
}

// Import replaces the items with the rows of a CSV or XLSX file. When the
// file is rejected the current items are left untouched.
func (s *Session) Import(name string, r io.Reader) (proposal.ImportReport, error) {
	rows, err := tabular.Read(name, r)
	if err != nil {
		return proposal.ImportReport{}, fmt.Errorf("import %s: %w", name, err)
	}

	report := s.ledger.ImportFrom(rows)
	if len(report.Issues) > 0 {
		s.logger.Warn("import recovered malformed rows", "file", name, "rows", report.Imported, "issues", len(report.Issues))
	} else {
		s.logger.Info("import completed", "file", name, "rows", report.Imported)
	}
	return report, nil
}

// Metadata returns the proposal metadata.
func (s *Session) Metadata() proposal.Metadata { return s.meta }

// SetMetadata replaces the proposal metadata.
func (s *Session) SetMetadata(m proposal.Metadata) { s.meta = m }

// Issuer returns the current issuer profile.
func (s *Session) Issuer() issuer.Profile { return s.issuer() }

// Snapshot returns an immutable view of the session.
func (s *Session) Snapshot() proposal.Snapshot {
	return s.ledger.Snapshot(s.meta, s.issuer())
}

// Summary renders the live text summary.
func (s *Session) Summary() string {
	return render.Summary(s.Snapshot())
}

// Document is a generated proposal ready for download.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	Summary     string
	Images      []render.ImageResult
}

// Generate renders the document. It returns a *proposal.PreconditionError
// when the client name or the items are missing.
func (s *Session) Generate(ctx context.Context) (Document, error) {
	snap := s.Snapshot()
	if err := proposal.CheckGenerate(snap); err != nil {
		return Document{}, err
	}

	res, err := s.renderer.Render(ctx, snap)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Filename:    render.Filename(snap.Metadata.Client, s.renderer.Now()),
		ContentType: render.ContentType,
		Data:        res.Document,
		Summary:     res.Summary,
		Images:      res.Images,
	}
	s.logger.Info("proposal generated",
		"file", doc.Filename,
		"items", len(snap.Items),
		"total", snap.GrandTotal.StringFixed(2),
		"bytes", len(doc.Data),
	)
	return doc, nil
}
