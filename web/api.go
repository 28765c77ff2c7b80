package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/robinvdvleuten/proposta/proposal"
	"github.com/robinvdvleuten/proposta/session"
	"github.com/robinvdvleuten/proposta/tabular"
)

var templateContentTypes = map[string]string{
	tabular.FormatCSV:  "text/csv; charset=utf-8",
	tabular.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.AddItem()
	writeJSONResponse(w, http.StatusCreated, stateOf(sess))
}

// handlePutItems applies a full edit payload. Every stored item must be
// present exactly once, otherwise nothing changes.
func (s *Server) handlePutItems(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var payload []itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	edits := make([]proposal.Edit, len(payload))
	for i, p := range payload {
		edits[i] = p.edit()
	}
	if err := sess.ApplyEdits(edits); err != nil {
		s.writeError(w, r, statusOf(err, http.StatusInternalServerError), err)
		return
	}

	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	payload.ID = proposal.ID(r.PathValue("id"))

	if err := sess.UpdateItem(payload.edit()); err != nil {
		status := statusOf(err, http.StatusInternalServerError)
		if status == http.StatusBadRequest {
			status = http.StatusNotFound
		}
		s.writeError(w, r, status, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleRemoveLast(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.RemoveLast(); err != nil {
		s.writeError(w, r, statusOf(err, http.StatusInternalServerError), err)
		return
	}
	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Clear()
	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handlePutMetadata(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var payload metadataPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	meta, err := payload.metadata()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	sess.SetMetadata(meta)

	writeJSONResponse(w, http.StatusOK, stateOf(sess))
}

type issueResponse struct {
	Line   int    `json:"line"`
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Raw    string `json:"raw,omitempty"`
}

type importResponse struct {
	Imported int              `json:"imported"`
	Issues   []issueResponse  `json:"issues"`
	Proposal proposalResponse `json:"proposal"`
}

// handleImport replaces the items with an uploaded CSV or XLSX file sent as
// the multipart field "file".
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, tabular.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(tabular.MaxFileSize); err != nil {
		s.writeError(w, r, statusOf(err, http.StatusBadRequest), fmt.Errorf("invalid upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer func() { _ = file.Close() }()

	report, err := sess.Import(header.Filename, file)
	if err != nil {
		// Anything wrong with an uploaded file is the client's problem.
		s.writeError(w, r, statusOf(err, http.StatusBadRequest), err)
		return
	}

	issues := make([]issueResponse, len(report.Issues))
	for i, issue := range report.Issues {
		issues[i] = issueResponse{Line: issue.Line, Column: issue.Column, Kind: string(issue.Kind), Raw: issue.Raw}
	}
	writeJSONResponse(w, http.StatusOK, importResponse{
		Imported: report.Imported,
		Issues:   issues,
		Proposal: stateOf(sess),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, sess.Summary())
}

// handleDocument generates the PDF and sends it as a download.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	doc, err := sess.Generate(r.Context())
	if err != nil {
		s.writeError(w, r, statusOf(err, http.StatusInternalServerError), err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(doc.Data)))
	_, _ = w.Write(doc.Data)
}

// handleTemplate sends the sample item spreadsheet.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	contentType, ok := templateContentTypes[format]
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("%w %q", tabular.ErrUnsupportedFormat, format))
		return
	}

	var buf bytes.Buffer
	if err := tabular.Write(&buf, format, tabular.Template()); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "modelo_itens."+format))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGetIssuer(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, s.currentIssuer())
}
