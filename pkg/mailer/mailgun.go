package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends worker email through one configured domain.
type Mailgun struct {
	client  *mg.MailgunImpl
	from    string
	tag     string
	timeout time.Duration
}

// NewMailgun builds the client once. apiBase is optional (EU accounts use
// a different region endpoint); tag marks every message for analytics.
func NewMailgun(domain, apiKey, from, apiBase, tag string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, from: from, tag: tag, timeout: 10 * time.Second}
}

// Send sends one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if m.tag != "" {
		if err := msg.AddTag(m.tag); err != nil {
			return err
		}
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
