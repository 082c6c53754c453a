package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyResponse is returned when the service answers without any content.
	ErrEmptyResponse = errors.New("completion service returned no content")

	// ErrMissingCredential is wrapped in an authentication ServiceError when a
	// provider that needs an API key was started without one.
	ErrMissingCredential = errors.New("no credential configured")
)

// FailureKind classifies a completion service failure.
type FailureKind string

const (
	FailureNetwork    FailureKind = "network"
	FailureAuth       FailureKind = "auth"
	FailureRateLimit  FailureKind = "rate_limit"
	FailureTimeout    FailureKind = "timeout"
	FailureServer     FailureKind = "server"
	FailureBadRequest FailureKind = "bad_request"
)

// ServiceError reports a failure talking to the completion service.
type ServiceError struct {
	Provider   string
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsAuthentication reports whether err is an authentication failure,
// including a call made without a configured credential.
func IsAuthentication(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == FailureAuth
}

// IsTransient reports whether err is a service failure worth retrying later.
func IsTransient(err error) bool {
	var se *ServiceError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Kind {
	case FailureRateLimit, FailureServer, FailureNetwork, FailureTimeout:
		return true
	}
	return false
}

func missingCredential(provider string) error {
	return &ServiceError{Provider: provider, Kind: FailureAuth, Err: ErrMissingCredential}
}

// transportError classifies an error returned by http.Client.Do.
func transportError(ctx context.Context, provider string, err error) error {
	kind := FailureNetwork
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind = FailureTimeout
		err = ctxErr
	} else if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = FailureTimeout
	}
	return &ServiceError{Provider: provider, Kind: kind, Err: err}
}

// statusError classifies a non-2xx HTTP response.
func statusError(provider string, status int, body []byte) error {
	kind := FailureBadRequest
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = FailureAuth
	case status == http.StatusTooManyRequests:
		kind = FailureRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = FailureTimeout
	case status >= 500:
		kind = FailureServer
	}
	return &ServiceError{Provider: provider, Kind: kind, StatusCode: status, Body: truncate(string(body), 512)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
