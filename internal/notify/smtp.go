package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPSender delivers emails through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// ErrMailDisabled is returned when no SMTP host is configured.
var ErrMailDisabled = errors.New("notify: smtp host not configured")

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) client() (*mail.Client, error) {
	if s.cfg.Host == "" {
		return nil, ErrMailDisabled
	}
	opts := []mail.Option{mail.WithTLSPortPolicy(mail.TLSOpportunistic)}
	if s.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

// Message converts an Email into a go-mail message.
func (s *SMTPSender) Message(email Email) (*mail.Msg, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: from address: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("notify: recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	return msg, nil
}

// Send delivers the email synchronously.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	msg, err := s.Message(email)
	if err != nil {
		return err
	}
	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %q: %w", email.Subject, err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
