package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/tabular"
	"github.com/robinvdvleuten/proposta/telemetry"
)

// CheckCmd validates an item file without generating anything.
type CheckCmd struct {
	File   FileOrStdin `help:"CSV or XLSX item file (use '-' for CSV on stdin, or omit for stdin)." arg:"" optional:""`
	Strict bool        `help:"Fail when any row needed recovery."`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.instrument(ctx, fmt.Sprintf("check %s", cmd.File.DisplayName()))
	defer reportTelemetry()

	rc, err := cmd.File.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	readTimer := telemetry.StartTimer(runCtx, "check.read")
	rows, err := tabular.Read(cmd.File.Filename, rc)
	readTimer.End()
	if err != nil {
		return NewCommandError(reportError(ctx.Stderr, err), err)
	}

	ledger := proposal.New()
	report := ledger.ImportFrom(rows)
	reportImport(ctx.Stderr, cmd.File.DisplayName(), report)

	if report.Imported == 0 {
		printWarningf(ctx.Stderr, "no items found")
	}

	if len(report.Issues) > 0 && cmd.Strict {
		err := fmt.Errorf("%d row issue(s) found", len(report.Issues))
		printError(ctx.Stderr, err.Error())
		return NewCommandError(ExitFailure, err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d item(s), total %s",
		report.Imported, locale.FormatMoney(ledger.Total())))
	return nil
}
