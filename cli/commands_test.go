package cli

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/proposal"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var commands Commands
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&commands,
		kong.Name("proposta"),
		kong.Writers(&stdout, &stderr),
		kong.Bind(&commands.Globals),
		kong.Exit(func(int) {}),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}
	return -1
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleItems = "Produto;Quant.;Preço Unit.;Observações\nCabo;2;10,50;\nFio;abc;3;sem estoque\n"

func TestRenderCmd(t *testing.T) {
	t.Run("WritesDocument", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", sampleItems)

		res := run(t, "render", items, "--client", "ACME Ltda", "--date", "2025-06-03", "--out", dir, "--no-compress")
		assert.NoError(t, res.err)
		assert.Contains(t, res.stdout, "A/C: ACME Ltda")
		assert.Contains(t, res.stdout, "Total Geral: R$ 21,00")
		assert.Contains(t, res.stdout, "Proposal written to")
		assert.Contains(t, res.stderr, `itens.csv:3: "abc" is not a valid amount for column "Quant."`)

		matches, err := filepath.Glob(filepath.Join(dir, "proposta_ACME_Ltda_*.pdf"))
		assert.NoError(t, err)
		assert.Equal(t, 1, len(matches))
		data, err := os.ReadFile(matches[0])
		assert.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		assert.True(t, bytes.Contains(data, []byte("A/C: ACME Ltda")))
	})

	t.Run("ExplicitOutputFile", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", sampleItems)
		out := filepath.Join(dir, "saida.pdf")

		res := run(t, "render", items, "-C", "ACME", "-o", out, "--no-summary")
		assert.NoError(t, res.err)
		assert.NotContains(t, res.stdout, "Total Geral")
		_, err := os.Stat(out)
		assert.NoError(t, err)
	})

	t.Run("MissingColumns", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", "Produto,Quant.\nCabo,1\n")

		res := run(t, "render", items, "--client", "ACME", "--out", dir)
		assert.Equal(t, ExitFailure, exitCode(res.err))
		var missing *proposal.MissingColumnsError
		assert.True(t, errors.As(res.err, &missing))
		assert.Contains(t, res.stderr, "missing required columns: Preço Unit.")
		assert.Contains(t, res.stderr, "expected columns")
	})

	t.Run("NoItems", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", "Produto;Quant.;Preço Unit.\n")

		res := run(t, "render", items, "--client", "ACME", "--out", dir)
		assert.Equal(t, ExitPrecondition, exitCode(res.err))
		assert.True(t, errors.Is(res.err, proposal.ErrNoItems))
		assert.Contains(t, res.stderr, "at least one item is required")

		matches, _ := filepath.Glob(filepath.Join(dir, "*.pdf"))
		assert.Equal(t, 0, len(matches))
	})

	t.Run("InvalidDate", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", sampleItems)

		res := run(t, "render", items, "--client", "ACME", "--date", "03/06/2025", "--out", dir)
		assert.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "YYYY-MM-DD")
	})

	t.Run("Telemetry", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", sampleItems)

		res := run(t, "--telemetry", "render", items, "--client", "ACME", "--out", dir)
		assert.NoError(t, res.err)
		assert.Contains(t, res.stderr, "render itens.csv")
		assert.Contains(t, res.stderr, "render.pdf")
	})
}

func TestTemplateCmd(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		res := run(t, "template", "--format", "csv", "--out", "-")
		assert.NoError(t, res.err)
		assert.True(t, strings.HasPrefix(res.stdout, "Produto,Quant.,Preço Unit.,Observações\n"))
		assert.Contains(t, res.stdout, "Serviço C,3,10.5,Instalação inclusa")
	})

	t.Run("File", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "modelo.xlsx")

		res := run(t, "template", "--out", out)
		assert.NoError(t, res.err)
		data, err := os.ReadFile(out)
		assert.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("PK")))

		res = run(t, "template", "--out", out, "--force")
		assert.NoError(t, res.err)
	})

	t.Run("RoundTripsThroughCheck", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "modelo.xlsx")
		assert.NoError(t, run(t, "template", "--out", out).err)

		res := run(t, "check", out)
		assert.NoError(t, res.err)
		assert.Contains(t, res.stdout, "3 item(s), total R$ 431,50")
	})
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	items := writeFile(t, dir, "itens.csv", sampleItems)

	res := run(t, "check", items)
	assert.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Check passed: 2 item(s), total R$ 21,00")
	assert.Contains(t, res.stderr, "itens.csv:3")

	res = run(t, "check", "--strict", items)
	assert.Equal(t, ExitFailure, exitCode(res.err))
	assert.Contains(t, res.stderr, "1 row issue(s) found")

	empty := writeFile(t, dir, "vazio.csv", "Produto;Quant.;Preço Unit.\n")
	res = run(t, "check", empty)
	assert.NoError(t, res.err)
	assert.Contains(t, res.stderr, "no items found")
}

func TestDoctorCmd(t *testing.T) {
	t.Run("Snapshot", func(t *testing.T) {
		dir := t.TempDir()
		items := writeFile(t, dir, "itens.csv", sampleItems)

		res := run(t, "doctor", "snapshot", items, "--client", "ACME")
		assert.NoError(t, res.err)
		assert.Contains(t, res.stdout, `"ACME"`)
		assert.Contains(t, res.stdout, `"Cabo"`)
		assert.Contains(t, res.stdout, `"sem estoque"`)
	})

	t.Run("Issuer", func(t *testing.T) {
		dir := t.TempDir()
		logo, err := os.Create(filepath.Join(dir, "logo.png"))
		assert.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 4, 2))
		img.Set(0, 0, color.Black)
		assert.NoError(t, png.Encode(logo, img))
		assert.NoError(t, logo.Close())

		profile := writeFile(t, dir, "emitente.yaml", "legal_name: TESTE LTDA\ncnpj: 33.333.333/0001-33\nbank:\n  name: Caixa\n  pix_key: 33333333000133\nsignatory:\n  name: Lia Reis\nimages:\n  logo: logo.png\n  signature: ausente.png\n")

		res := run(t, "--issuer", profile, "doctor", "issuer")
		assert.NoError(t, res.err)
		assert.Contains(t, res.stdout, `"TESTE LTDA"`)
		assert.Contains(t, res.stdout, "logo: ")
		assert.Contains(t, res.stdout, "signature: ")
	})
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	code := reportError(&buf, &proposal.PreconditionError{Errors: []error{proposal.ErrClientRequired, proposal.ErrNoItems}})
	assert.Equal(t, ExitPrecondition, code)
	assert.Contains(t, buf.String(), "cannot generate proposal")
	assert.Contains(t, buf.String(), "  - client name is required\n")
	assert.Contains(t, buf.String(), "  - at least one item is required\n")

	buf.Reset()
	code = reportError(&buf, errors.New("boom"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, buf.String(), "boom")
}

func TestDescribeIssue(t *testing.T) {
	assert.Equal(t, `no value for column "Preço Unit."`,
		describeIssue(proposal.RowIssue{Line: 2, Column: "Preço Unit.", Kind: proposal.IssueMissing}))
	assert.Equal(t, `"x" is not a valid amount for column "Quant.", using 0`,
		describeIssue(proposal.RowIssue{Line: 2, Column: "Quant.", Kind: proposal.IssueCoerced, Raw: "x"}))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount(""))
	assert.NoError(t, validateAmount("1.234,56"))
	assert.NoError(t, validateAmount("12.5"))
	assert.Error(t, validateAmount("abc"))
	assert.Error(t, validateAmount("-1"))
}

func TestFileOrStdin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "itens.csv", sampleItems)

	f := FileOrStdin{Filename: path}
	assert.Equal(t, "itens.csv", f.DisplayName())
	rc, err := f.Open()
	assert.NoError(t, err)
	assert.NoError(t, rc.Close())

	piped := FileOrStdin{Filename: stdinName, Contents: []byte(sampleItems)}
	assert.Equal(t, "<stdin>", piped.DisplayName())
	rc, err = piped.Open()
	assert.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	assert.NoError(t, err)
	assert.Equal(t, sampleItems, buf.String())
}
