// Package email delivers lead follow-up messages over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender sends follow-up emails through a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

var _ ports.FollowUpSender = (*SMTPSender)(nil)

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// NewSMTPSenderFromConfig returns nil when SMTP is not configured.
func NewSMTPSenderFromConfig(cfg config.SMTPConfig) *SMTPSender {
	if !cfg.IsEmailEnabled() {
		return nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// SendFollowUp delivers the lead's drafted follow-up as plain text with an
// HTML alternative.
func (s *SMTPSender) SendFollowUp(ctx context.Context, toEmail, toName, message string) error {
	msg, err := s.followUpMessage(toEmail, toName, message)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *SMTPSender) followUpMessage(toEmail, toName, message string) (*gomail.Msg, error) {
	toName = strings.TrimSpace(toName)
	subject := subjectFollowUpFallback
	greeting := ""
	if first := firstName(toName); first != "" {
		subject = fmt.Sprintf(subjectFollowUpFmt, first)
		greeting = "Hi " + first + ","
	}

	content, err := renderEmailTemplate("follow_up.html", followUpEmailData{
		baseEmailData: baseEmailData{
			Title:  subject,
			Footer: s.fromName,
		},
		Greeting:   greeting,
		Paragraphs: paragraphs(message),
	})
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if toName != "" {
		err = msg.AddToFormat(toName, toEmail)
	} else {
		err = msg.To(toEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, message)
	msg.AddAlternativeString(gomail.TypeTextHTML, content)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
