package http

import (
	"bytes"
	"errors"
	"net/http"

	"billed/internal/bills"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/session"
)

// Active navbar icons.
const (
	iconWindow = "window"
	iconMail   = "mail"
)

// fileStatus feeds the file_status partial.
type fileStatus struct {
	Name  string
	Error string
}

type pageData struct {
	Title      string
	Session    core.Session
	ActiveIcon string
	Error      string

	Rows []bills.Row

	DraftID    string
	BillTypes  []string
	DefaultPct int
	File       fileStatus
}

type sessionHandler func(http.ResponseWriter, *http.Request, core.Session)

// withSession reads the session cookie once and hands it to next.
// Requests without a valid session go back to the login page.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.FromRequest(r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.FromContext(r.Context()).DebugContext(r.Context(), "Session rejected", log.FieldError, err)
			}
			Redirect(w, r, "/")
			return
		}
		next(w, r, sess)
	}
}

// render executes a full page with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			"page", page)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(buf.Bytes()).Write(w)
}

// partial renders a named fragment from partials.html.
func (s *Server) partial(r *http.Request, name string, data any) []byte {
	var buf bytes.Buffer
	if err := s.partials.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Partial render failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			"partial", name)
		return nil
	}
	return buf.Bytes()
}
