// Package mail renders problem emails and hands them to an outbound transport.
package mail

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSender is returned at send time when no sender address is configured.
var ErrNoSender = errors.New("no sender address configured (set mail.from or EMAIL_USER)")

// Message is one rendered outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// MailError reports a failed delivery to one recipient.
type MailError struct {
	Recipient string
	Err       error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("send mail to %s: %v", e.Recipient, e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}
