// Package http provides the web server and its handlers.
//
// This file holds the request parsing helpers shared by the bill form
// handlers: multipart parsing with a size cap and event extraction.

package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"billed/internal/bills"
)

// fileField is the name of the receipt input in the new bill form.
const fileField = "file"

var errNoFile = errors.New("no file in request")

// ParseMultipartOrFail parses a multipart body capped at maxBytes.
// Returns an error response builder on failure, nil on success.
func ParseMultipartOrFail(w http.ResponseWriter, r *http.Request, maxBytes int64) *HTMXResponseBuilder {
	if r.ContentLength > maxBytes {
		return ErrorResponse(http.StatusRequestEntityTooLarge, "Le fichier est trop volumineux.")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrorResponse(http.StatusRequestEntityTooLarge, "Le fichier est trop volumineux.")
		}
		return BadRequestError("Format de requête invalide.")
	}
	return nil
}

// FileEventFromRequest reads the uploaded receipt from a parsed multipart form.
// It returns errNoFile when the form carries no file part or an empty one.
func FileEventFromRequest(r *http.Request) (bills.FileEvent, error) {
	file, header, err := r.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return bills.FileEvent{}, errNoFile
		}
		return bills.FileEvent{}, fmt.Errorf("read file part: %w", err)
	}
	defer file.Close()

	data, err := readPart(file)
	if err != nil {
		return bills.FileEvent{}, err
	}
	if header.Filename == "" && len(data) == 0 {
		return bills.FileEvent{}, errNoFile
	}
	return bills.FileEvent{
		Name:        sanitizeInput(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readPart(f multipart.File) ([]byte, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}
	return data, nil
}

// SubmitEventFromRequest collects the sanitized bill form fields.
func SubmitEventFromRequest(r *http.Request) bills.SubmitEvent {
	get := func(key string) string { return sanitizeInput(r.FormValue(key)) }
	return bills.SubmitEvent{
		Type:       get("type"),
		Name:       get("name"),
		Date:       get("date"),
		Amount:     get("amount"),
		VAT:        get("vat"),
		Pct:        get("pct"),
		Commentary: get("commentary"),
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Format de requête invalide.")
	}
	return nil
}
