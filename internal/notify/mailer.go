package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer envoie les e-mails par SMTP (STARTTLS obligatoire, auth LOGIN)
type Mailer struct {
	cfg MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("expéditeur %q: %w", m.cfg.From, err)
	}
	if err := msg.To(e.To); err != nil {
		return fmt.Errorf("destinataire %q: %w", e.To, err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, e.HTML)

	for _, a := range e.Attachments {
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
			return fmt.Errorf("pièce jointe %s: %w", a.Name, err)
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("client SMTP: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

// LogSender remplace le SMTP quand il n'est pas configuré (dev local)
type LogSender struct {
	logf func(format string, args ...interface{})
}

func NewLogSender(logf func(format string, args ...interface{})) *LogSender {
	return &LogSender{logf: logf}
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.logf("📧 [smtp désactivé] to=%s subject=%q attachments=%d", e.To, e.Subject, len(e.Attachments))
	return nil
}
