package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

type Attachment struct {
	Filename string
	Content  []byte
}

type Email struct {
	From        string
	To          string
	BCC         string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer is the narrow interface the reporter sends through. Tests
// inject a stub that records sends without touching the network.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type smtpMailer struct {
	client *mail.Client
}

// NewSMTPMailer returns a Mailer backed by an authenticated SMTP
// connection. Sends are bounded by a 30s timeout; a timed-out send is a
// retryable transport failure, not fatal.
func NewSMTPMailer(host string, port int, username, password string) (Mailer, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &smtpMailer{client: client}, nil
}

func (m *smtpMailer) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()
	if err := msg.From(e.From); err != nil {
		return fmt.Errorf("%w: from address: %v", ErrTransport, err)
	}
	if err := msg.To(e.To); err != nil {
		return fmt.Errorf("%w: to address: %v", ErrTransport, err)
	}
	if e.BCC != "" {
		if err := msg.Bcc(e.BCC); err != nil {
			return fmt.Errorf("%w: bcc address: %v", ErrTransport, err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.Body)
	for _, att := range e.Attachments {
		if err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content)); err != nil {
			return fmt.Errorf("%w: attach %s: %v", ErrTransport, att.Filename, err)
		}
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}
