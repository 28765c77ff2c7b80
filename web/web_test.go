package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/tabular"
)

func newTestServer(t *testing.T, issuerFile string) (*Server, http.Handler) {
	t.Helper()
	server := New(8080, issuerFile)
	server.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	server.now = func() time.Time { return time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC) }
	server.RenderOptions = []render.Option{render.WithCompression(false)}
	return server, server.setupRouter()
}

// client keeps the session cookie between requests.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	if body == nil {
		return c.do(method, path, nil, "")
	}
	data, err := json.Marshal(body)
	assert.NoError(c.t, err)
	return c.do(method, path, bytes.NewReader(data), "application/json")
}

func (c *client) upload(name, content string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	assert.NoError(c.t, err)
	_, err = part.Write([]byte(content))
	assert.NoError(c.t, err)
	assert.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, "/api/import", &buf, mw.FormDataContentType())
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) proposalResponse {
	t.Helper()
	var state proposalResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	return state
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAPIProposal(t *testing.T) {
	_, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}

	rec := c.json(http.MethodGet, "/api/proposal", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, len(c.cookies))
	assert.Equal(t, CookieName, c.cookies[0].Name)

	state := decodeState(t, rec)
	assert.Equal(t, 2, len(state.Items))
	assert.Equal(t, "R$ 400,00", state.TotalFormatted)
	assert.Equal(t, "2025-03-14", state.Metadata.Date)
	assert.Equal(t, "15 dias", state.Metadata.Validity)
	assert.True(t, state.CanRemove)
	assert.Equal(t, []string{"client name is required"}, state.Problems)
}

func TestAPIItems(t *testing.T) {
	t.Run("AddEditRemove", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}

		rec := c.json(http.MethodPost, "/api/items", nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
		state := decodeState(t, rec)
		assert.Equal(t, 3, len(state.Items))
		assert.Equal(t, "R$ 400,00", state.TotalFormatted)

		added := state.Items[2]
		rec = c.json(http.MethodPatch, "/api/items/"+string(added.ID), map[string]any{
			"description": "Frete",
			"quantity":    3,
			"unitPrice":   "10,00",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		state = decodeState(t, rec)
		assert.Equal(t, "R$ 430,00", state.TotalFormatted)
		assert.Equal(t, "Frete", state.Items[2].Description)

		rec = c.json(http.MethodDelete, "/api/items/last", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		state = decodeState(t, rec)
		assert.Equal(t, "R$ 400,00", state.TotalFormatted)
	})

	t.Run("RemoveRefusedAtOneItem", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}

		rec := c.json(http.MethodDelete, "/api/items/last", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeState(t, rec).CanRemove)

		rec = c.json(http.MethodDelete, "/api/items/last", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = c.json(http.MethodGet, "/api/proposal", nil)
		assert.Equal(t, 1, len(decodeState(t, rec).Items))
	})

	t.Run("FullEditMatchedByIdentity", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		state := decodeState(t, c.json(http.MethodGet, "/api/proposal", nil))

		// Rows are sent in reverse order; identity decides where each lands.
		payload := []map[string]any{
			{"id": state.Items[1].ID, "description": "B", "quantity": "2", "unitPrice": "1.000,00"},
			{"id": state.Items[0].ID, "description": "A", "quantity": -5, "unitPrice": "abc"},
		}
		rec := c.json(http.MethodPut, "/api/items", payload)
		assert.Equal(t, http.StatusOK, rec.Code)
		state = decodeState(t, rec)
		assert.Equal(t, "A", state.Items[0].Description)
		assert.True(t, state.Items[0].Quantity.IsZero())
		assert.True(t, state.Items[0].UnitPrice.IsZero())
		assert.Equal(t, "B", state.Items[1].Description)
		assert.True(t, state.Total.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("MismatchedPayloadRejected", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		state := decodeState(t, c.json(http.MethodGet, "/api/proposal", nil))

		payload := []map[string]any{{"id": state.Items[0].ID, "description": "X", "quantity": 1, "unitPrice": 1}}
		rec := c.json(http.MethodPut, "/api/items", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		state = decodeState(t, c.json(http.MethodGet, "/api/proposal", nil))
		assert.Equal(t, "Produto A", state.Items[0].Description)
		assert.Equal(t, "R$ 400,00", state.TotalFormatted)
	})

	t.Run("UnknownItem", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		rec := c.json(http.MethodPatch, "/api/items/nope", map[string]any{"description": "X"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Clear", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		rec := c.json(http.MethodPost, "/api/clear", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		state := decodeState(t, rec)
		assert.Equal(t, 1, len(state.Items))
		assert.Equal(t, "R$ 0,00", state.TotalFormatted)
	})
}

func TestAPISessionsAreIsolated(t *testing.T) {
	_, handler := newTestServer(t, "")
	alice := &client{t: t, handler: handler}
	bob := &client{t: t, handler: handler}

	alice.json(http.MethodPost, "/api/items", nil)
	alice.json(http.MethodPost, "/api/items", nil)

	assert.Equal(t, 4, len(decodeState(t, alice.json(http.MethodGet, "/api/proposal", nil)).Items))
	assert.Equal(t, 2, len(decodeState(t, bob.json(http.MethodGet, "/api/proposal", nil)).Items))
	assert.NotEqual(t, alice.cookies[0].Value, bob.cookies[0].Value)
}

func TestAPIMetadata(t *testing.T) {
	_, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}

	rec := c.json(http.MethodPut, "/api/metadata", map[string]string{"client": "ACME", "date": "14/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "YYYY-MM-DD")

	rec = c.json(http.MethodPut, "/api/metadata", map[string]string{
		"client":       "ACME Ltda",
		"date":         "2025-06-03",
		"validity":     "30 dias",
		"paymentTerm":  "30/60",
		"deliveryTerm": "10 dias úteis",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, metadataPayload{
		Client:       "ACME Ltda",
		Date:         "2025-06-03",
		Validity:     "30 dias",
		PaymentTerm:  "30/60",
		DeliveryTerm: "10 dias úteis",
	}, state.Metadata)
	assert.Equal(t, []string{}, state.Problems)

	rec = c.json(http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A/C: ACME Ltda")
	assert.Contains(t, rec.Body.String(), "30 dias")
}

func TestAPIImport(t *testing.T) {
	t.Run("ReplacesItems", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}

		rec := c.upload("itens.csv", "Produto;Quant.;Preço Unit.\nCabo;2;10,50\nFio;abc;3\n")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp importResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Imported)
		assert.Equal(t, []issueResponse{{Line: 3, Column: "Quant.", Kind: "coerced", Raw: "abc"}}, resp.Issues)
		assert.Equal(t, "R$ 21,00", resp.Proposal.TotalFormatted)
	})

	t.Run("MissingColumns", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}

		rec := c.upload("itens.csv", "Produto,Observações\nCabo,x\n")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"Quant.", "Preço Unit."}, decodeError(t, rec).Details)

		state := decodeState(t, c.json(http.MethodGet, "/api/proposal", nil))
		assert.Equal(t, "R$ 400,00", state.TotalFormatted)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		rec := c.upload("itens.txt", "Produto;Quant.;Preço Unit.\n")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("FileTooLarge", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}

		content := "Produto,Quant.,Preço Unit.\nCabo,1,1\n"
		content += strings.Repeat("\n", tabular.MaxFileSize+1-len(content))
		rec := c.upload("itens.csv", content)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

		state := decodeState(t, c.json(http.MethodGet, "/api/proposal", nil))
		assert.Equal(t, "R$ 400,00", state.TotalFormatted)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, handler := newTestServer(t, "")
		c := &client{t: t, handler: handler}
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		assert.NoError(t, mw.Close())
		rec := c.do(http.MethodPost, "/api/import", &buf, mw.FormDataContentType())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPIDocument(t *testing.T) {
	_, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}

	rec := c.json(http.MethodGet, "/api/document", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"client name is required"}, decodeError(t, rec).Details)

	c.json(http.MethodPut, "/api/metadata", map[string]string{"client": "ACME Ltda"})
	rec = c.json(http.MethodGet, "/api/document", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="proposta_ACME_Ltda_20250314.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	assert.Contains(t, rec.Body.String(), "Total Geral: R$ 400,00")
}

func TestAPITemplate(t *testing.T) {
	_, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}

	rec := c.json(http.MethodGet, "/api/template/csv", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Produto,Quant.,Preço Unit.,Observações\n"))

	rec = c.json(http.MethodGet, "/api/template/xlsx", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "modelo_itens.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = c.json(http.MethodGet, "/api/template/ods", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func issuerYAML(name string) []byte {
	return []byte("legal_name: " + name + "\ncnpj: 22.222.222/0001-22\nbank:\n  name: Banco do Brasil\n  account: 12345-6\nsignatory:\n  name: Rui Costa\n")
}

func TestIssuerReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emitente.yaml")
	assert.NoError(t, os.WriteFile(path, issuerYAML("PRIMEIRA LTDA"), 0o600))

	server, handler := newTestServer(t, path)
	assert.NoError(t, server.reloadIssuer())
	c := &client{t: t, handler: handler}

	var profile map[string]any
	rec := c.json(http.MethodGet, "/api/issuer", nil)
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, "PRIMEIRA LTDA", profile["legal_name"])

	assert.NoError(t, os.WriteFile(path, issuerYAML("SEGUNDA LTDA"), 0o600))
	assert.NoError(t, server.reloadIssuer())
	assert.Equal(t, "SEGUNDA LTDA", server.currentIssuer().LegalName)

	// An incomplete profile keeps the previous one.
	assert.NoError(t, os.WriteFile(path, []byte("legal_name: TERCEIRA LTDA\n"), 0o600))
	assert.Error(t, server.reloadIssuer())
	assert.Equal(t, "SEGUNDA LTDA", server.currentIssuer().LegalName)
}

func TestSessionPrune(t *testing.T) {
	server, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}
	c.json(http.MethodGet, "/api/proposal", nil)
	assert.Equal(t, 1, len(server.sessions))

	start := server.now()
	server.now = func() time.Time { return start.Add(SessionTTL + time.Minute) }
	other := &client{t: t, handler: handler}
	other.json(http.MethodGet, "/api/proposal", nil)
	assert.Equal(t, 1, len(server.sessions))
	_, ok := server.sessions[c.cookies[0].Value]
	assert.False(t, ok)
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`12.5`, "12.5"},
		{`"1.234,56"`, "1234.56"},
		{`"R$ 10"`, "10"},
		{`"abc"`, "0"},
		{`-3`, "0"},
		{`null`, "0"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			var a amount
			assert.NoError(t, json.Unmarshal([]byte(test.input), &a))
			assert.Equal(t, test.want, decimal.Decimal(a).String())
		})
	}
}

func TestIndexPage(t *testing.T) {
	_, handler := newTestServer(t, "")
	c := &client{t: t, handler: handler}
	rec := c.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Proposta Comercial")
}
