package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/tabular"
)

var errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})

// reportError prints err to w with the details a user needs to fix it and
// returns the exit code the command should end with.
func reportError(w io.Writer, err error) int {
	var (
		precondition *proposal.PreconditionError
		missing      *proposal.MissingColumnsError
	)

	switch {
	case errors.As(err, &precondition):
		printError(w, "cannot generate proposal")
		for _, e := range precondition.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", e)
		}
		return ExitPrecondition

	case errors.As(err, &missing):
		printError(w, err.Error())
		_, _ = fmt.Fprintln(w, errContextStyle.Render(
			fmt.Sprintf("  expected columns: %s (run `proposta template` for a sample)", strings.Join(tabular.Header, ", ")),
		))
		return ExitFailure

	default:
		printError(w, err.Error())
		return ExitFailure
	}
}

// reportImport prints one warning per recovered row problem.
func reportImport(w io.Writer, name string, report proposal.ImportReport) {
	for _, issue := range report.Issues {
		printWarningf(w, "%s:%d: %s", name, issue.Line, describeIssue(issue))
	}
}

func describeIssue(issue proposal.RowIssue) string {
	switch issue.Kind {
	case proposal.IssueMissing:
		return fmt.Sprintf("no value for column %q", issue.Column)
	case proposal.IssueCoerced:
		return fmt.Sprintf("%q is not a valid amount for column %q, using 0", issue.Raw, issue.Column)
	default:
		return fmt.Sprintf("%s value in column %q", issue.Kind, issue.Column)
	}
}
