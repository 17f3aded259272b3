package services

import (
	"errors"
	"net/http"
)

// Error is a business-rule failure carrying the HTTP status it maps to
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(msg string) error   { return &Error{Status: http.StatusBadRequest, Message: msg} }
func unauthorized(msg string) error { return &Error{Status: http.StatusUnauthorized, Message: msg} }
func forbidden(msg string) error    { return &Error{Status: http.StatusForbidden, Message: msg} }
func notFound(msg string) error     { return &Error{Status: http.StatusNotFound, Message: msg} }

// AsError unwraps err into a service Error if it is one
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 for anything unexpected
func StatusOf(err error) int {
	if se, ok := AsError(err); ok {
		return se.Status
	}
	return http.StatusInternalServerError
}
