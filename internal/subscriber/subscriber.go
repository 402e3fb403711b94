// Package subscriber defines the subscriber store contract shared by every
// persistence backend.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Subscriber is one stored email address.
type Subscriber struct {
	Email string `json:"email"`
}

// Store persists subscribers keyed by email.
type Store interface {
	// Upsert creates the subscriber if absent and leaves it untouched otherwise.
	Upsert(ctx context.Context, email string) error
	// ListEmails returns every stored email. An empty result is not an error.
	ListEmails(ctx context.Context) ([]string, error)
	Close() error
}

// ErrInvalidEmail is returned for empty or unparsable addresses.
var ErrInvalidEmail = errors.New("invalid email address")

// StoreError wraps a connectivity or validation failure at the persistence boundary.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("subscriber store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err and a *StoreError otherwise.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// NormalizeEmail trims raw and checks that it is a bare address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", &StoreError{Op: "validate", Err: ErrInvalidEmail}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &StoreError{Op: "validate", Err: fmt.Errorf("%w: %q", ErrInvalidEmail, email)}
	}
	return email, nil
}
