package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nao1215/formbuilder/internal/csrf"
	"github.com/nao1215/formbuilder/internal/database"
	"github.com/nao1215/formbuilder/internal/formdef"
	"github.com/nao1215/formbuilder/internal/model"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Forms</title>
</head>
<body>
<h1>Forms</h1>
{{- if .}}
<ul>
{{- range .}}
<li><a href="/forms/{{.ID}}/">{{.Name}}</a></li>
{{- end}}
</ul>
{{- else}}
<p>No forms available.</p>
{{- end}}
</body>
</html>
`))

// submitResponse is the JSON body of a submission reply.
type submitResponse struct {
	OK     bool           `json:"ok"`
	Errors formdef.Errors `json:"errors,omitempty"`
}

// SubmitPath returns the submission endpoint of a template.
func SubmitPath(id int64) string {
	return fmt.Sprintf("/forms/%d/submit/", id)
}

// FormPath returns the page that renders a template.
func FormPath(id int64) string {
	return fmt.Sprintf("/forms/%d/", id)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context(), true)
	if err != nil {
		s.internalError(w, r, "failed to list templates", err)
		return
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, templates); err != nil {
		s.internalError(w, r, "failed to render index", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.activeTemplate(w, r)
	if !ok {
		return
	}

	def, err := formdef.Build(*tpl)
	if err != nil {
		s.internalError(w, r, "failed to build form", err)
		return
	}

	token, err := csrf.EnsureCookie(w, r)
	if err != nil {
		s.internalError(w, r, "failed to issue csrf cookie", err)
		return
	}

	var buf bytes.Buffer
	err = formdef.Render(&buf, def, formdef.RenderOptions{
		Title:     tpl.Name,
		SubmitURL: SubmitPath(tpl.ID),
		CSRFToken: token,
	})
	if err != nil {
		s.internalError(w, r, "failed to render form", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.activeTemplate(w, r)
	if !ok {
		return
	}

	def, err := formdef.Build(*tpl)
	if err != nil {
		s.internalError(w, r, "failed to build form", err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	payload, ok := decodeObject(body)
	if !ok {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	cleaned, errs := def.Validate(payload)
	if errs != nil {
		s.logger.Debug("submission rejected", "template_id", tpl.ID, "fields", len(errs))
		writeJSON(w, http.StatusBadRequest, submitResponse{OK: false, Errors: errs})
		return
	}

	sub, err := model.NewSubmission(tpl.ID, cleaned)
	if err != nil {
		s.internalError(w, r, "failed to prepare submission", err)
		return
	}
	if err := s.store.InsertSubmission(r.Context(), sub); err != nil {
		s.internalError(w, r, "failed to store submission", err)
		return
	}

	s.logger.Debug("submission stored", "template_id", tpl.ID, "submission_id", sub.ID)
	writeJSON(w, http.StatusOK, submitResponse{OK: true})
}

// activeTemplate loads the active template named by the pk route parameter.
// It writes 404 and returns false when there is none.
func (s *Server) activeTemplate(w http.ResponseWriter, r *http.Request) (*model.Template, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pk"), 10, 64)
	if err != nil || id < 0 {
		http.NotFound(w, r)
		return nil, false
	}

	tpl, err := s.store.GetActiveTemplate(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.internalError(w, r, "failed to load template", err)
		return nil, false
	}
	return tpl, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// decodeObject parses body as a single JSON object. Numbers stay
// json.Number so integers are not rounded through float64.
func decodeObject(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
