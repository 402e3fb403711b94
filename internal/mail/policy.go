package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/question"
)

// DeliveryPolicy decides what happens to a broadcast send that failed.
type DeliveryPolicy interface {
	Failed(ctx context.Context, recipient string, q question.Question, err error)
}

// LogAndDrop logs the failure and drops the message. There is no retry queue
// and no dead letter; the recipient gets the next scheduled broadcast.
type LogAndDrop struct {
	logger *zap.Logger
}

// NewLogAndDrop builds the LogAndDrop policy.
func NewLogAndDrop(logger *zap.Logger) LogAndDrop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return LogAndDrop{logger: logger}
}

// Failed implements DeliveryPolicy.
func (p LogAndDrop) Failed(_ context.Context, recipient string, q question.Question, err error) {
	p.logger.Error("Error sending email",
		zap.String("to", recipient),
		zap.String("platform", q.Platform.String()),
		zap.String("title", q.Title),
		zap.Error(err),
	)
}
