package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the stable, machine-readable identifier of an OAuth failure.
type ErrorKind string

const (
	KindMissingParameter     ErrorKind = "MissingParameter"
	KindInvalidShopDomain    ErrorKind = "InvalidShopDomain"
	KindMissingConfiguration ErrorKind = "MissingConfiguration"
	KindInvalidState         ErrorKind = "InvalidState"
	KindInvalidSignature     ErrorKind = "InvalidSignature"
	KindTokenExchangeFailed  ErrorKind = "TokenExchangeFailed"
	KindInternalError        ErrorKind = "InternalError"
)

// Status returns the HTTP status the kind is rendered with.
func (k ErrorKind) Status() int {
	switch k {
	case KindMissingParameter, KindInvalidShopDomain, KindInvalidState,
		KindInvalidSignature, KindTokenExchangeFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// OAuthError is the single error type surfaced by the authorization flows.
// Message is safe to show to the caller; Err is kept for logs only.
type OAuthError struct {
	Kind    ErrorKind
	Message string

	// UpstreamStatus and UpstreamBody are set for TokenExchangeFailed.
	UpstreamStatus int
	UpstreamBody   string

	Err error
}

func (e *OAuthError) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Kind, e.Message, e.UpstreamStatus)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *OAuthError) Unwrap() error {
	return e.Err
}

// Is matches any *OAuthError of the same kind, so callers can write
// errors.Is(err, &OAuthError{Kind: KindInvalidState}).
func (e *OAuthError) Is(target error) bool {
	t, ok := target.(*OAuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status for this error.
func (e *OAuthError) Status() int {
	return e.Kind.Status()
}

// Sentinels usable with errors.Is.
var (
	ErrMissingParameter     = &OAuthError{Kind: KindMissingParameter}
	ErrInvalidShopDomain    = &OAuthError{Kind: KindInvalidShopDomain}
	ErrMissingConfiguration = &OAuthError{Kind: KindMissingConfiguration}
	ErrInvalidState         = &OAuthError{Kind: KindInvalidState}
	ErrInvalidSignature     = &OAuthError{Kind: KindInvalidSignature}
	ErrTokenExchangeFailed  = &OAuthError{Kind: KindTokenExchangeFailed}
	ErrInternal             = &OAuthError{Kind: KindInternalError}
)

func NewMissingParameterError(names ...string) *OAuthError {
	msg := "missing required parameter"
	if len(names) == 1 {
		msg = fmt.Sprintf("missing required parameter %q", names[0])
	} else if len(names) > 1 {
		msg = fmt.Sprintf("missing required parameters %q", names)
	}
	return &OAuthError{Kind: KindMissingParameter, Message: msg}
}

func NewInvalidShopDomainError(raw, reason string) *OAuthError {
	return &OAuthError{
		Kind:    KindInvalidShopDomain,
		Message: fmt.Sprintf("invalid shop domain %q: %s", raw, reason),
	}
}

// NewMissingConfigurationError names the missing setting, never its value.
func NewMissingConfigurationError(setting string) *OAuthError {
	return &OAuthError{
		Kind:    KindMissingConfiguration,
		Message: fmt.Sprintf("%s is not configured", setting),
	}
}

func NewInvalidStateError(reason string) *OAuthError {
	return &OAuthError{Kind: KindInvalidState, Message: reason}
}

func NewInvalidSignatureError() *OAuthError {
	return &OAuthError{Kind: KindInvalidSignature, Message: "HMAC validation failed, request may be forged"}
}

// NewRepeatedParameterError rejects a callback that carries a parameter twice.
func NewRepeatedParameterError(names ...string) *OAuthError {
	return &OAuthError{
		Kind:    KindInvalidSignature,
		Message: fmt.Sprintf("parameter %q appears more than once", strings.Join(names, ",")),
	}
}

// NewTokenExchangeError records the provider's answer for diagnostics.
// status is 0 when no response was received.
func NewTokenExchangeError(status int, body string, cause error) *OAuthError {
	msg := "token exchange failed"
	if status != 0 {
		msg = fmt.Sprintf("token exchange failed with status %d", status)
	}
	return &OAuthError{
		Kind:           KindTokenExchangeFailed,
		Message:        msg,
		UpstreamStatus: status,
		UpstreamBody:   body,
		Err:            cause,
	}
}

// NewInternalError hides cause behind a generic message.
func NewInternalError(cause error) *OAuthError {
	return &OAuthError{
		Kind:    KindInternalError,
		Message: "internal server error",
		Err:     cause,
	}
}

// AsOAuthError returns err as an *OAuthError, wrapping anything unknown as InternalError.
func AsOAuthError(err error) *OAuthError {
	if err == nil {
		return nil
	}
	var oe *OAuthError
	if errors.As(err, &oe) {
		return oe
	}
	return NewInternalError(err)
}
