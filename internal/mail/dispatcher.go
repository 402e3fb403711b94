package mail

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/metrics"
	"github.com/JakeFAU/questify/internal/question"
)

// Delivery paths, used as metric labels.
const (
	PathWelcome   = "welcome"
	PathBroadcast = "broadcast"
)

// Dispatcher renders questions and submits them to a Transport.
type Dispatcher struct {
	transport Transport
	from      string
	logger    *zap.Logger
}

// NewDispatcher builds a Dispatcher sending as from.
func NewDispatcher(transport Transport, from string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{transport: transport, from: from, logger: logger}
}

// Send renders q and delivers one message to recipient. Any failure is a *MailError.
func (d *Dispatcher) Send(ctx context.Context, path, recipient string, q question.Question, subject string) error {
	if recipient == "" {
		return d.fail(path, &MailError{Recipient: recipient, Err: errors.New("empty recipient")})
	}
	if d.from == "" {
		return d.fail(path, &MailError{Recipient: recipient, Err: ErrNoSender})
	}
	body, err := RenderQuestion(q)
	if err != nil {
		return d.fail(path, &MailError{Recipient: recipient, Err: err})
	}
	msg := Message{
		From:    d.from,
		To:      recipient,
		Subject: subject,
		HTML:    body,
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		return d.fail(path, &MailError{Recipient: recipient, Err: err})
	}
	metrics.ObserveMail(path, "sent")
	d.logger.Info("Email sent",
		zap.String("path", path),
		zap.String("to", recipient),
		zap.String("platform", q.Platform.String()),
	)
	return nil
}

func (d *Dispatcher) fail(path string, err *MailError) error {
	metrics.ObserveMail(path, "failed")
	return err
}
