package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRefreshToken means the refresh token is missing or was
	// rejected. A replacement must be supplied before renewal can succeed.
	ErrInvalidRefreshToken = errors.New("refresh token rejected")

	// ErrServiceUnavailable means the auth server is down for maintenance.
	// Callers must not retry in a tight loop.
	ErrServiceUnavailable = errors.New("questrade api is down for maintenance")

	// ErrNoCredential means no refresh token is stored and none could be
	// obtained from the prompt.
	ErrNoCredential = errors.New("no refresh token available")
)

// maintenanceMarker is the body fragment Questrade returns during maintenance.
const maintenanceMarker = "We're making some changes"

// RenewalError is a failed response from the token endpoint: any non-200,
// or a 200 whose body is a recognised error page.
type RenewalError struct {
	StatusCode int
	Body       []byte

	// Err is ErrServiceUnavailable, ErrInvalidRefreshToken or nil.
	Err error
}

func (e *RenewalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token renewal failed (%d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token renewal failed (%d): %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (e *RenewalError) Unwrap() error {
	return e.Err
}

// classifyRenewalFailure maps a failed token response onto the error taxonomy.
func classifyRenewalFailure(status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	err := &RenewalError{StatusCode: status, Body: body}

	switch {
	case strings.Contains(text, maintenanceMarker):
		err.Err = ErrServiceUnavailable
	case status == 400 || text == "Bad Request":
		err.Err = ErrInvalidRefreshToken
	}

	return err
}
