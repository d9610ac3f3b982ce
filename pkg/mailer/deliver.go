package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/simplecrud/users-service/pkg/mailer/templates"
)

// ErrBadJob marks jobs that can never be delivered; the worker drops them
// instead of requeueing.
var ErrBadJob = errors.New("bad email job")

// DecodeJob parses a queue payload.
func DecodeJob(body []byte) (EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return EmailJob{}, fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	job.To = strings.TrimSpace(job.To)
	if job.To == "" {
		return EmailJob{}, fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	if job.Template == "" && job.Subject == "" {
		return EmailJob{}, fmt.Errorf("%w: neither template nor subject set", ErrBadJob)
	}
	return job, nil
}

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}
