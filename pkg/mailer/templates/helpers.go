package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithLoginURL(url string) Option { return func(d *EmailData) { d.LoginURL = url } }

// Branding carries the application-wide values every email shows.
type Branding struct {
	AppName    string
	Company    string
	SupportURL string
	LoginURL   string
}

// NewWelcomeData builds the data map for the welcome email sent after registration.
func NewWelcomeData(b Branding, name, username, email string, opts ...Option) map[string]any {
	d := EmailData{
		Name:       name,
		Username:   username,
		Email:      email,
		Type:       Welcome,
		AppName:    b.AppName,
		Company:    b.Company,
		SupportURL: b.SupportURL,
		LoginURL:   b.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}
