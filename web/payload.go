package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/proposta/locale"
	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/session"
	"github.com/robinvdvleuten/proposta/tabular"
)

// amount accepts a JSON number or a pt-BR formatted string. Values that do
// not parse become zero, negative values are clamped to zero.
type amount decimal.Decimal

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = amount(decimal.Zero)
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		raw, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		d, _ := proposal.CoerceAmount(raw)
		*a = amount(d)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		d = decimal.Zero
	}
	*a = amount(proposal.Clamp(d))
	return nil
}

type itemPayload struct {
	ID          proposal.ID `json:"id"`
	Description string      `json:"description"`
	Quantity    amount      `json:"quantity"`
	UnitPrice   amount      `json:"unitPrice"`
	Notes       string      `json:"notes"`
}

func (p itemPayload) edit() proposal.Edit {
	return proposal.Edit{
		ID:          p.ID,
		Description: p.Description,
		Quantity:    decimal.Decimal(p.Quantity),
		UnitPrice:   decimal.Decimal(p.UnitPrice),
		Notes:       p.Notes,
	}
}

type metadataPayload struct {
	Client       string `json:"client"`
	Date         string `json:"date"`
	Validity     string `json:"validity"`
	PaymentTerm  string `json:"paymentTerm"`
	DeliveryTerm string `json:"deliveryTerm"`
}

func metadataOf(m proposal.Metadata) metadataPayload {
	p := metadataPayload{
		Client:       m.Client,
		Validity:     m.Validity,
		PaymentTerm:  m.PaymentTerm,
		DeliveryTerm: m.DeliveryTerm,
	}
	if !m.Date.IsZero() {
		p.Date = m.Date.String()
	}
	return p
}

func (p metadataPayload) metadata() (proposal.Metadata, error) {
	m := proposal.Metadata{
		Client:       p.Client,
		Validity:     p.Validity,
		PaymentTerm:  p.PaymentTerm,
		DeliveryTerm: p.DeliveryTerm,
	}
	if p.Date != "" {
		d, err := proposal.ParseDate(p.Date)
		if err != nil {
			return proposal.Metadata{}, err
		}
		m.Date = d
	}
	return m, nil
}

type itemResponse struct {
	ID             proposal.ID     `json:"id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Notes          string          `json:"notes"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
}

type proposalResponse struct {
	Metadata       metadataPayload `json:"metadata"`
	Items          []itemResponse  `json:"items"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
	CanRemove      bool            `json:"canRemove"`
	Problems       []string        `json:"problems"`
}

func stateOf(sess *session.Session) proposalResponse {
	snap := sess.Snapshot()

	items := make([]itemResponse, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = itemResponse{
			ID:             item.ID,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Notes:          item.Notes,
			Total:          item.Total(),
			TotalFormatted: locale.FormatMoney(item.Total()),
		}
	}

	return proposalResponse{
		Metadata:       metadataOf(snap.Metadata),
		Items:          items,
		Total:          snap.GrandTotal,
		TotalFormatted: locale.FormatMoney(snap.GrandTotal),
		CanRemove:      sess.CanRemove(),
		Problems:       detailsOf(proposal.CheckGenerate(snap)),
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// statusOf maps domain errors to HTTP status codes, falling back to
// fallback for errors it does not recognize.
func statusOf(err error, fallback int) int {
	var (
		precondition *proposal.PreconditionError
		missing      *proposal.MissingColumnsError
		mismatch     *proposal.EditMismatchError
		tooLarge     *http.MaxBytesError
	)
	switch {
	case errors.Is(err, tabular.ErrFileTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &precondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, proposal.ErrMinimumItems):
		return http.StatusConflict
	case errors.As(err, &missing), errors.As(err, &mismatch),
		errors.Is(err, tabular.ErrUnsupportedFormat), errors.Is(err, tabular.ErrNoHeader):
		return http.StatusBadRequest
	}
	return fallback
}

// detailsOf lists the individual problems behind err, if any.
func detailsOf(err error) []string {
	if err == nil {
		return []string{}
	}
	var precondition *proposal.PreconditionError
	if errors.As(err, &precondition) {
		details := make([]string, len(precondition.Errors))
		for i, e := range precondition.Errors {
			details[i] = e.Error()
		}
		return details
	}
	var missing *proposal.MissingColumnsError
	if errors.As(err, &missing) {
		return missing.Columns
	}
	return nil
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.Logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSONResponse(w, status, errorResponse{Error: err.Error(), Details: detailsOf(err)})
}
