// Package mail delivers outbound email: directly over SMTP, to the log, or
// through a RabbitMQ queue drained by the mailer worker.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"
)

// RoutingKey is the default routing key for queued messages.
const RoutingKey = "mail.send"

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "mail").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail")
	return nil
}

type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var a smtp.Auth
	if s.cfg.Username != "" {
		host := s.cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}

	if err := s.send(s.cfg.Addr, a, s.cfg.From, []string{msg.To}, s.render(msg)); err != nil {
		err = fmt.Errorf("smtp send to %s: %w", msg.To, err)

		// 5xx replies (unknown mailbox, policy rejection) will not change on retry.
		var reply *textproto.Error
		if errors.As(err, &reply) && reply.Code >= 500 {
			return Permanent(err)
		}

		return err
	}

	return nil
}

func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// QueueSender hands messages to the broker; the mailer worker delivers them.
type QueueSender struct {
	pub Publisher
	key string
}

func NewQueueSender(pub Publisher, key string) *QueueSender {
	if key == "" {
		key = RoutingKey
	}

	return &QueueSender{pub: pub, key: key}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if err := s.pub.PublishJSON(ctx, s.key, msg); err != nil {
		return fmt.Errorf("queue mail to %s: %w", msg.To, err)
	}

	return nil
}
