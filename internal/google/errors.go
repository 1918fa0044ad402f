package google

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrConsentDenied is returned when the interactive authorization step ends
// without an authorization code.
var ErrConsentDenied = errors.New("authorization was not granted")

// AuthError reports that no usable Google credential could be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError reports a failed Google API request. StatusCode is zero when the
// request never produced an HTTP response.
type NetworkError struct {
	Service    string
	Operation  string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is or wraps an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ClassifyError maps an error returned by a Google API call onto the typed
// errors of this package. Context cancellation and deadline errors are returned
// unchanged so callers can tell a timeout from a failure.
func ClassifyError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return err
	}

	// A refresh failing mid-request surfaces as a RetrieveError from the transport.
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return &AuthError{Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 401 {
			return &AuthError{Err: err}
		}
		return &NetworkError{Service: service, Operation: operation, StatusCode: gerr.Code, Err: err}
	}

	return &NetworkError{Service: service, Operation: operation, Err: err}
}
