package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/session"
)

// DoctorCmd provides doctor utilities for debugging proposals.
type DoctorCmd struct {
	Snapshot SnapshotCmd `cmd:"" help:"Dump the proposal snapshot built from an item file."`
	Issuer   IssuerCmd   `cmd:"" help:"Show the resolved issuer profile and whether its images can be embedded."`
}

// SnapshotCmd imports an item file and prints the resulting snapshot.
type SnapshotCmd struct {
	File   FileOrStdin `help:"CSV or XLSX item file (use '-' for CSV on stdin, or omit for stdin)." arg:"" optional:""`
	Client string      `help:"Client name to set on the snapshot." short:"C"`
}

func (cmd *SnapshotCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	profile, err := globals.profile()
	if err != nil {
		return err
	}

	sess := session.New(
		session.WithIssuer(profile),
		session.WithLedger(proposal.New()),
		session.WithLogger(globals.logger(ctx.Stderr)),
	)
	meta := sess.Metadata()
	meta.Client = cmd.Client
	sess.SetMetadata(meta)

	if err := importFile(ctx.Stderr, sess, &cmd.File); err != nil {
		return NewCommandError(reportError(ctx.Stderr, err), err)
	}

	_, _ = fmt.Fprintln(ctx.Stdout, repr.String(sess.Snapshot(), repr.Indent("  ")))
	return nil
}

// IssuerCmd prints the issuer profile and the outcome of loading its images.
type IssuerCmd struct{}

func (cmd *IssuerCmd) Run(ctx *kong.Context, globals *Globals) error {
	profile, err := globals.profile()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(ctx.Stdout, repr.String(profile, repr.Indent("  ")))

	renderer := render.New(render.WithLogger(globals.logger(ctx.Stderr)))
	_, images, err := renderer.Document(proposal.Snapshot{Issuer: profile})
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.Status == render.ImageLoaded {
			printSuccess(ctx.Stdout, fmt.Sprintf("%s: %s", img.Name, pathStyle.Render(img.Path)))
			continue
		}
		printWarningf(ctx.Stdout, "%s: %s", img.Name, img.Reason)
	}
	return nil
}
