// Package errors holds the domain error taxonomy shared by services and handlers.
package errors

import (
	"context"
	stderrors "errors"
)

// DomainError is a business error with a stable machine-readable code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies still compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an ad-hoc domain error.
func New(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Code returns the domain code carried by err, or "" if err is not a domain error.
func Code(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsTimeout reports whether err is a timeout, either our own or one raised by
// the context, the network stack or the HTTP client. fasthttp's ErrTimeout
// only implements Timeout(), so the check is on that method rather than net.Error.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTimeout) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return stderrors.As(err, &te) && te.Timeout()
}
