// Package memory provides an in-process subscriber store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/questify/internal/subscriber"
)

// SubscriberStore keeps subscribers in insertion order.
type SubscriberStore struct {
	mu     sync.RWMutex
	index  map[string]struct{}
	emails []string
	closed bool
}

// NewSubscriberStore constructs an empty SubscriberStore.
func NewSubscriberStore() *SubscriberStore {
	return &SubscriberStore{index: make(map[string]struct{})}
}

// Upsert records email once; repeated calls are no-ops.
func (s *SubscriberStore) Upsert(_ context.Context, email string) error {
	email, err := subscriber.NormalizeEmail(email)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return subscriber.Wrap("upsert", errStoreClosed)
	}
	if _, exists := s.index[email]; exists {
		return nil
	}
	s.index[email] = struct{}{}
	s.emails = append(s.emails, email)
	return nil
}

// ListEmails returns a copy of every stored email.
func (s *SubscriberStore) ListEmails(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, subscriber.Wrap("list", errStoreClosed)
	}
	out := make([]string, len(s.emails))
	copy(out, s.emails)
	return out, nil
}

// Close marks the store unusable.
func (s *SubscriberStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
