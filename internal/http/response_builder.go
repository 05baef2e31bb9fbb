// Package http provides the web server and its handlers.
//
// This file implements a small builder for HTMX responses: HX-Trigger
// events, redirects and HTML partial bodies.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events sent through HX-Trigger.
const (
	EventReceiptCleared = "receipt:cleared"
	EventReceiptStaged  = "receipt:staged"
)

type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerReceiptCleared tells the page to empty the file input.
func (b *HTMXResponseBuilder) TriggerReceiptCleared(fileName string) *HTMXResponseBuilder {
	return b.Trigger(EventReceiptCleared, map[string]string{"fileName": fileName})
}

func (b *HTMXResponseBuilder) TriggerReceiptStaged(fileName string) *HTMXResponseBuilder {
	return b.Trigger(EventReceiptStaged, map[string]string{"fileName": fileName})
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets an HTML body, usually a rendered partial.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// Redirect navigates the browser to url: HX-Redirect for htmx requests,
// 303 See Other for plain form posts.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ErrorResponse is an escaped error partial with the given status.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error" data-testid="form-error">` + template.HTMLEscapeString(message) + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
