package http

import (
	"net/http"

	"billed/internal/core"
	"billed/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, "/bills", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, pageLogin, pageData{Title: "Connexion"})
}

// handleLogin trusts the posted identity and issues the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	sess := core.Session{
		Type:  core.UserType(sanitizeInput(r.PostForm.Get("type"))),
		Email: sanitizeInput(r.PostForm.Get("email")),
	}
	if !sess.Valid() {
		s.render(w, r, http.StatusUnprocessableEntity, pageLogin, pageData{
			Title: "Connexion",
			Error: "Veuillez saisir une adresse email valide.",
		})
		return
	}
	if err := s.sessions.Issue(w, sess); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Session issue failed", log.FieldError, err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Signed in",
		log.FieldEmail, sess.Email,
		"user_type", string(sess.Type))
	http.Redirect(w, r, "/bills", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	Redirect(w, r, "/")
}
