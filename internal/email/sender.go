package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/config"
	"github.com/deskline/support-tickets/internal/domain"
)

const (
	subjectCreated = "Support Ticket Created"
	subjectUpdated = "Support Ticket Updated"
)

// Message is a plain text notification addressed to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a single message attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Sender renders ticket notifications and delivers them with retries.
type Sender struct {
	transport Transport
	cfg       config.EmailConfig
	logger    *zap.Logger
}

// NewSender returns a sender that delivers over SMTP.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) *Sender {
	return NewSenderWithTransport(cfg, NewSMTPTransport(cfg), logger)
}

// NewSenderWithTransport returns a sender using the given transport.
func NewSenderWithTransport(cfg config.EmailConfig, transport Transport, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{transport: transport, cfg: cfg, logger: logger}
}

// SendTicketCreated tells the submitter their ticket exists.
func (s *Sender) SendTicketCreated(ctx context.Context, ticket domain.Ticket) error {
	body := fmt.Sprintf("Your support ticket has been created.\n\nTicket ID: %s\n\nWe'll get back to you soon!", ticket.ID)
	return s.send(ctx, Message{To: ticket.Email, Subject: subjectCreated, Body: body})
}

// SendTicketUpdated tells the submitter about a status change or a new resolution.
func (s *Sender) SendTicketUpdated(ctx context.Context, ticket domain.Ticket, kind domain.ChangeKind) error {
	var body string
	switch kind {
	case domain.ChangeStatus:
		body = fmt.Sprintf("Your ticket status has been updated.\n\nTicket ID: %s\nNew Status: %s", ticket.ID, ticket.Status)
	case domain.ChangeResolution:
		body = fmt.Sprintf("Your ticket has been updated with resolution.\n\nTicket ID: %s\nResolution: %s", ticket.ID, ticket.Resolution)
	default:
		return fmt.Errorf("unknown change kind %q", kind)
	}
	return s.send(ctx, Message{To: ticket.Email, Subject: subjectUpdated, Body: body})
}

func (s *Sender) send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(s.cfg.SMTPHost) == "" {
		s.logger.Warn("SMTP host not configured, skipping email", zap.String("subject", msg.Subject))
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email recipient is empty")
	}

	attempts := s.cfg.MaxRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	attempt := 0
	operation := func() error {
		attempt++
		return s.transport.Send(ctx, msg)
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("email attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", wait),
			zap.String("to", msg.To),
			zap.Error(err))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(s.cfg.RetryDelay()), uint64(attempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		s.logger.Error("email delivery failed",
			zap.Int("attempts", attempt),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("send %q after %d attempts: %w", msg.Subject, attempt, err)
	}
	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Int("attempts", attempt))
	return nil
}

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base    time.Duration
	retries int
}

func newLinearBackOff(base time.Duration) *linearBackOff {
	return &linearBackOff{base: base}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.retries++
	return b.base * time.Duration(b.retries)
}

func (b *linearBackOff) Reset() {
	b.retries = 0
}

// SMTPTransport sends messages with go-mail, one connection per message.
type SMTPTransport struct {
	cfg config.EmailConfig
}

// NewSMTPTransport returns a transport for the configured relay.
func NewSMTPTransport(cfg config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := t.buildMessage(msg)
	if err != nil {
		return backoff.Permanent(err)
	}

	opts := []mail.Option{
		mail.WithPort(t.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if t.cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.SMTPUsername),
			mail.WithPassword(t.cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(t.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (t *SMTPTransport) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(t.cfg.FromName, t.cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
