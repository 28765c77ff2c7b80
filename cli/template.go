package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/tabular"
)

// TemplateCmd writes the sample item spreadsheet users start from.
type TemplateCmd struct {
	Format string `help:"Spreadsheet format (${enum})." enum:"csv,xlsx" default:"xlsx"`
	Out    string `help:"Output file, '-' for stdout (defaults to modelo_itens.<format>)." short:"o"`
	Force  bool   `help:"Overwrite an existing file without asking." short:"f"`
}

func (cmd *TemplateCmd) Run(ctx *kong.Context, globals *Globals) error {
	var buf bytes.Buffer
	if err := tabular.Write(&buf, cmd.Format, tabular.Template()); err != nil {
		return err
	}

	if cmd.Out == "-" {
		_, err := ctx.Stdout.Write(buf.Bytes())
		return err
	}

	path := cmd.Out
	if path == "" {
		path = "modelo_itens." + cmd.Format
	}

	if _, err := os.Stat(path); err == nil && !cmd.Force {
		overwrite, err := promptYesNo(fmt.Sprintf("%s already exists. Overwrite?", path), false)
		if err != nil {
			return err
		}
		if !overwrite {
			err := fmt.Errorf("%s already exists (use --force to overwrite)", path)
			printError(ctx.Stderr, err.Error())
			return NewCommandError(ExitFailure, err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Template written to %s", pathStyle.Render(path)))
	return nil
}
