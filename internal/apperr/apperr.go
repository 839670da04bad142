// Package apperr is the error taxonomy shared by the service and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindUpstream     Kind = "upstream"
	KindConfig       Kind = "config"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	// Field names the offending request field for validation errors.
	Field string
	// Status is the upstream HTTP status for upstream errors.
	Status  int
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg, Details: field}
}

// Missing is the validation error for an absent required field.
func Missing(field string) *Error {
	return Validation(field, "missing required field: "+field)
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found", Details: id}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Upstream wraps a non-success response from a collaborator, keeping its raw body.
func Upstream(provider string, status int, body string) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: provider + " request failed",
		Status:  status,
		Details: body,
	}
}

// UpstreamTransport is an upstream failure with no response at all.
func UpstreamTransport(provider string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: provider + " unreachable", Status: http.StatusBadGateway, Err: err}
}

func Config(key string) *Error {
	return &Error{Kind: KindConfig, Message: key + " not configured"}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Payload is the {error, details?} body for err.
func Payload(err error) map[string]string {
	var e *Error
	if !errors.As(err, &e) {
		return map[string]string{"error": err.Error()}
	}
	out := map[string]string{"error": e.Message}
	if e.Details != "" {
		out["details"] = e.Details
	}
	return out
}
