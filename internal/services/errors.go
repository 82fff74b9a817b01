package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies booking failures so the HTTP layer can pick a status code
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInvalidRange        ErrorKind = "INVALID_RANGE"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindConflict            ErrorKind = "CONFLICT"
	KindPaymentProvider     ErrorKind = "PAYMENT_PROVIDER_ERROR"
	KindWebhookVerification ErrorKind = "WEBHOOK_VERIFICATION_ERROR"
	KindWebhookProcessing   ErrorKind = "WEBHOOK_PROCESSING_ERROR"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
)

// Sentinels for errors.Is checks against a kind
var (
	ErrNotFound            = &BookingError{Kind: KindNotFound}
	ErrInvalidRange        = &BookingError{Kind: KindInvalidRange}
	ErrInvalidInput        = &BookingError{Kind: KindInvalidInput}
	ErrConflict            = &BookingError{Kind: KindConflict}
	ErrPaymentProvider     = &BookingError{Kind: KindPaymentProvider}
	ErrWebhookVerification = &BookingError{Kind: KindWebhookVerification}
	ErrWebhookProcessing   = &BookingError{Kind: KindWebhookProcessing}
	ErrForbidden           = &BookingError{Kind: KindForbidden}
	ErrUnauthorized        = &BookingError{Kind: KindUnauthorized}
)

// BookingError is a classified failure with a caller-facing message
type BookingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// Is matches any BookingError of the same kind
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, message string, err error) *BookingError {
	return &BookingError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of a BookingError in err's chain, or "" for unclassified errors
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// MessageOf returns the caller-facing message of a BookingError in err's chain
func MessageOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return ""
}
