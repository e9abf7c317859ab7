package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	DomainNotFoundErr     = errors.New("domain not available")
	InvalidCredentialsErr = errors.New("invalid credentials")
	DecodingErr           = errors.New("unexpected response shape")
)

// CredentialHint narrows an invalid-credentials failure for UI copy only.
// The underlying error kind is the same either way.
type CredentialHint int

const (
	HintNone CredentialHint = iota
	HintUsernameNotFound
	HintWrongPassword
)

// CredentialsError is a classified login rejection carrying the server's
// message when one was present.
type CredentialsError struct {
	Message string
	Hint    CredentialHint
}

func (e *CredentialsError) Error() string {
	if e.Message == "" {
		return InvalidCredentialsErr.Error()
	}
	return fmt.Sprintf("%s: %s", InvalidCredentialsErr.Error(), e.Message)
}

func (e *CredentialsError) Unwrap() error {
	return InvalidCredentialsErr
}

// hintFromMessage maps the server message onto a UI hint. A message
// mentioning the password maps to the wrong-password copy, one mentioning
// the username to the unknown-username copy.
func hintFromMessage(message string) CredentialHint {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "password"):
		return HintWrongPassword
	case strings.Contains(lower, "username"):
		return HintUsernameNotFound
	}
	return HintNone
}

// NetworkError wraps a transport-level failure, distinguishing it from the
// classified domain/credential rejections. Login flows log these but do not
// surface them as user-facing alerts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
