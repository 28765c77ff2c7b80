package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/issuer"
	"github.com/robinvdvleuten/proposta/output"
	"github.com/robinvdvleuten/proposta/telemetry"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Issuer    string `help:"Issuer profile (YAML). Uses the built-in profile when empty." type:"existingfile" env:"PROPOSTA_ISSUER"`
	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn"`
}

type Commands struct {
	Globals

	New      NewCmd      `cmd:"" help:"Build a proposal interactively and generate its PDF."`
	Render   RenderCmd   `cmd:"" help:"Generate a proposal PDF from a CSV or XLSX item file."`
	Template TemplateCmd `cmd:"" help:"Write the sample item spreadsheet."`
	Check    CheckCmd    `cmd:"" help:"Validate a CSV or XLSX item file."`
	Web      WebCmd      `cmd:"" help:"Start the proposal web editor."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging proposals."`
}

// profile loads the issuer profile selected by --issuer.
func (g *Globals) profile() (issuer.Profile, error) {
	if g.Issuer == "" {
		return issuer.Default(), nil
	}
	p, err := issuer.Load(g.Issuer)
	if err != nil {
		return issuer.Profile{}, fmt.Errorf("failed to load issuer profile: %w", err)
	}
	return p, nil
}

// logger returns a text logger writing to w at the selected level.
func (g *Globals) logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// instrument returns the context a command runs with and a function that
// prints the telemetry report, when enabled, to stderr. The report is
// printed at most once.
func (g *Globals) instrument(ctx *kong.Context, name string) (context.Context, func()) {
	runCtx := context.Background()
	if !g.Telemetry {
		return runCtx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	collector.Styles = output.NewStyles(ctx.Stderr)
	runCtx = telemetry.WithCollector(runCtx, collector)
	timer := collector.Start(name)

	var once sync.Once
	return runCtx, func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		})
	}
}
