package mail

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of the Transport interface for testing.
type MockTransport struct {
	mock.Mock
}

// Send is the mock implementation of the Send method.
func (m *MockTransport) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0) //nolint:wrapcheck
}
