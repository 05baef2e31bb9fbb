package http

import (
	"errors"
	"mime"
	"net/http"

	"billed/internal/bills"
	"billed/internal/core"
	"billed/internal/log"
)

// User-facing messages of the bill pages.
const (
	msgInvalidReceipt = "Seuls les fichiers jpg, jpeg et png sont acceptés."
	msgNoReceipt      = "Veuillez sélectionner un justificatif jpg, jpeg ou png."
	msgInvalidForm    = "Veuillez vérifier les champs du formulaire."
	msgDraftExpired   = "Le formulaire a expiré, veuillez recharger la page."
	msgEmployeesOnly  = "Seuls les employés peuvent envoyer une note de frais."
)

func (s *Server) handleBillsList(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx := r.Context()
	page, err := bills.LoadListPage(ctx, s.service, sess)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
		args := []any{log.FieldOperation, log.OpList, log.FieldEmail, sess.Email, log.FieldError, err}
		if re, ok := core.IsRemote(err); ok {
			args = append(args, log.FieldStatusCode, re.StatusCode, log.FieldErrorClass, string(re.Class()))
		}
		log.FromContext(ctx).WarnContext(ctx, "Bills list failed", args...)
	}
	s.render(w, r, status, pageBills, pageData{
		Title:      "Notes de frais",
		Session:    sess,
		ActiveIcon: iconWindow,
		Error:      page.Error,
		Rows:       page.Rows,
	})
}

func (s *Server) handleNewBillPage(w http.ResponseWriter, r *http.Request, sess core.Session) {
	sub, err := bills.NewSubmission(sess, s.service, s.logger)
	if err != nil {
		http.Redirect(w, r, bills.RouteBills, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, pageNewBill, pageData{
		Title:      "Nouvelle note de frais",
		Session:    sess,
		ActiveIcon: iconMail,
		DraftID:    s.drafts.Start(sub),
		BillTypes:  core.BillTypes(),
		DefaultPct: core.DefaultPct,
	})
}

// handleChangeFile runs the receipt validation for a file input change.
func (s *Server) handleChangeFile(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if !sess.IsEmployee() {
		ErrorResponse(http.StatusForbidden, msgEmployeesOnly).Write(w)
		return
	}
	if resp := ParseMultipartOrFail(w, r, s.maxUpload); resp != nil {
		resp.Write(w)
		return
	}
	sub, ok := s.drafts.Get(r.FormValue("draft_id"), sess.Email)
	if !ok {
		s.writeFileStatus(w, r, http.StatusGone, fileStatus{Error: msgDraftExpired}, "")
		return
	}

	ev, err := FileEventFromRequest(r)
	if err != nil && !errors.Is(err, errNoFile) {
		BadRequestError("Format de requête invalide.").Write(w)
		return
	}

	result, err := sub.HandleChangeFile(r.Context(), ev)
	switch {
	case errors.Is(err, bills.ErrAlreadySubmitted):
		Redirect(w, r, bills.RouteBills)
	case errors.Is(err, bills.ErrInvalidReceipt):
		s.writeFileStatus(w, r, http.StatusUnprocessableEntity, fileStatus{Error: msgInvalidReceipt}, result.FileName)
	case err != nil:
		InternalServerError("Erreur interne.").Write(w)
	default:
		NewHTMXResponse().
			TriggerReceiptStaged(result.FileName).
			BodyHTML(s.partial(r, "file_status", fileStatus{Name: result.FileName})).
			Write(w)
	}
}

// writeFileStatus answers with the file_status partial. A non-empty cleared
// name also tells the page to empty the file input.
func (s *Server) writeFileStatus(w http.ResponseWriter, r *http.Request, status int, st fileStatus, cleared string) {
	resp := NewHTMXResponse().Status(status).BodyHTML(s.partial(r, "file_status", st))
	if cleared != "" || status == http.StatusGone {
		resp.TriggerReceiptCleared(cleared)
	}
	resp.Write(w)
}

// handleSubmitBill is the form submit event. A file part in the submit is
// handled as a selection first, so forms posted without htmx work too.
func (s *Server) handleSubmitBill(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if !sess.IsEmployee() {
		ErrorResponse(http.StatusForbidden, msgEmployeesOnly).Write(w)
		return
	}
	if resp := ParseMultipartOrFail(w, r, s.maxUpload); resp != nil {
		resp.Write(w)
		return
	}
	draftID := r.FormValue("draft_id")
	sub, ok := s.drafts.Get(draftID, sess.Email)
	if !ok {
		ErrorResponse(http.StatusGone, msgDraftExpired).Write(w)
		return
	}

	ctx := r.Context()
	ev, err := FileEventFromRequest(r)
	switch {
	case err == nil:
		if _, err := sub.HandleChangeFile(ctx, ev); errors.Is(err, bills.ErrInvalidReceipt) {
			UnprocessableEntityError(msgInvalidReceipt).TriggerReceiptCleared(ev.Name).Write(w)
			return
		}
	case !errors.Is(err, errNoFile):
		BadRequestError("Format de requête invalide.").Write(w)
		return
	}

	result, err := sub.HandleSubmit(ctx, SubmitEventFromRequest(r))
	switch {
	case errors.Is(err, bills.ErrAlreadySubmitted):
		s.drafts.Finish(draftID)
		Redirect(w, r, bills.RouteBills)
	case errors.Is(err, bills.ErrNoReceiptStaged):
		UnprocessableEntityError(msgNoReceipt).Write(w)
	case errors.Is(err, bills.ErrInvalidForm):
		log.FromContext(ctx).DebugContext(ctx, "Bill form rejected", log.FieldError, err)
		UnprocessableEntityError(msgInvalidForm).Write(w)
	case err != nil:
		InternalServerError("Erreur interne.").Write(w)
	default:
		s.drafts.Finish(draftID)
		Redirect(w, r, result.Redirect)
	}
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request, _ core.Session) {
	if s.receipts == nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	receipt, err := s.receipts.GetReceipt(ctx, r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.FromContext(ctx).ErrorContext(ctx, "Receipt read failed", log.FieldError, err)
			http.Error(w, "receipt unavailable", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}

	contentType := receipt.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(receipt.Data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": receipt.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(receipt.Data)
}
