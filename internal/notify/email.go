// Package notify renders and delivers lock emails to account managers.
package notify

import (
	"context"
	"errors"
)

// Email is a rendered HTML message.
type Email struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"html_body"`
	// Reference ties the email to the run or digest that produced it.
	Reference string `json:"reference,omitempty"`
}

// Validate checks that the email can be sent.
func (e Email) Validate() error {
	if len(e.To) == 0 {
		return errors.New("notify: email has no recipient")
	}
	if e.Subject == "" {
		return errors.New("notify: email has no subject")
	}
	return nil
}

// Enqueuer hands an email to the delivery queue.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, email Email) error
}

// Sender delivers an email immediately.
type Sender interface {
	Send(ctx context.Context, email Email) error
}
