// Package broadcast sends one randomly selected question to every subscriber
// on a fixed daily schedule.
package broadcast

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/mail"
	"github.com/JakeFAU/questify/internal/metrics"
	"github.com/JakeFAU/questify/internal/question"
)

// EmailLister returns every subscribed email.
type EmailLister interface {
	ListEmails(ctx context.Context) ([]string, error)
}

// QuestionSelector picks the question of the day.
type QuestionSelector interface {
	Select(ctx context.Context) (question.Question, bool)
}

// Sender delivers one rendered question to one recipient.
type Sender interface {
	Send(ctx context.Context, path, recipient string, q question.Question, subject string) error
}

// Job is a single broadcast run: list, select, fan out.
type Job struct {
	store    EmailLister
	selector QuestionSelector
	sender   Sender
	policy   mail.DeliveryPolicy
	logger   *zap.Logger

	inflight sync.WaitGroup
}

// NewJob wires a Job. A nil policy defaults to mail.LogAndDrop.
func NewJob(store EmailLister, selector QuestionSelector, sender Sender, policy mail.DeliveryPolicy, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = mail.NewLogAndDrop(logger)
	}
	return &Job{
		store:    store,
		selector: selector,
		sender:   sender,
		policy:   policy,
		logger:   logger,
	}
}

// Run lists subscribers, selects one question and starts one send per
// subscriber. It returns once the sends are started; use Wait to drain them.
func (j *Job) Run(ctx context.Context) error {
	emails, err := j.store.ListEmails(ctx)
	if err != nil {
		metrics.ObserveBroadcast("store_error")
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(emails) == 0 {
		j.logger.Info("No emails found to send questions to.")
		metrics.ObserveBroadcast("no_subscribers")
		return nil
	}

	q, ok := j.selector.Select(ctx)
	if !ok {
		j.logger.Warn("Failed to fetch a question.")
		metrics.ObserveBroadcast("no_question")
		return nil
	}

	j.logger.Info("Sending daily question",
		zap.String("platform", q.Platform.String()),
		zap.String("title", q.Title),
		zap.Int("recipients", len(emails)),
	)
	sendCtx := context.WithoutCancel(ctx)
	subject := mail.BroadcastSubject(q.Platform)
	for _, email := range emails {
		j.inflight.Add(1)
		go func(to string) {
			defer j.inflight.Done()
			if err := j.sender.Send(sendCtx, mail.PathBroadcast, to, q, subject); err != nil {
				j.policy.Failed(sendCtx, to, q, err)
			}
		}(email)
	}
	metrics.ObserveBroadcast("dispatched")
	return nil
}

// Wait blocks until every send started by Run has finished.
func (j *Job) Wait() {
	j.inflight.Wait()
}
