package core

import (
	"errors"
	"strconv"
)

const (
	ClassClient ErrorClass = "client"
	ClassServer ErrorClass = "server"
)

type ErrorClass string

// RemoteError is a failure reported by the bills service.
type RemoteError struct {
	StatusCode int
	Message    string
}

// Error always starts with "Erreur <code>"; a message from the service follows it.
func (e *RemoteError) Error() string {
	text := "Erreur " + strconv.Itoa(e.StatusCode)
	if e.Message != "" {
		text += ": " + e.Message
	}
	return text
}

// Class groups the failure as client side (4xx) or server side (everything else).
func (e *RemoteError) Class() ErrorClass {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ClassClient
	}
	return ClassServer
}

// IsRemote reports whether err carries a RemoteError and returns it.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
