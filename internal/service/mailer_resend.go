package service

import (
	"context"
	"errors"
	"fmt"

	"gatehouse/internal/entity"

	"github.com/resend/resend-go"
)

// ResendMailer delivers one-time codes and reset links through the Resend
// API. The Resend client does not take a context; delivery timeouts are its
// concern, not the engine's.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey string, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) SendCode(ctx context.Context, email string, code string, purpose entity.SecretPurpose) error {
	subject := "Your verification code"
	if purpose == entity.Login2FA {
		subject = "Your login code"
	}
	html := fmt.Sprintf("<p>Your code is:</p><p><strong>%s</strong></p>", code)
	text := fmt.Sprintf("Your code is: %s", code)
	return m.send(email, subject, html, text)
}

func (m *ResendMailer) SendResetLink(ctx context.Context, email string, link string) error {
	subject := "Reset your password"
	html := fmt.Sprintf("<p>Click to reset your password:</p><p><a href=%q>Reset Password</a></p>", link)
	text := fmt.Sprintf("Reset your password: %s", link)
	return m.send(email, subject, html, text)
}

func (m *ResendMailer) send(to string, subject string, html string, text string) error {
	if m.client == nil {
		return errors.New("mailer not configured")
	}
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	return err
}
