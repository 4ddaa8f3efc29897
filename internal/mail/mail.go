// Package mail delivers transactional email (verification links, reset codes).
package mail

import (
	"context"
	"errors"
	"strings"
)

// Message is a single outbound email with text and HTML alternatives.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Validate checks that the message has recipients and a subject.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, rcpt := range m.To {
		if strings.TrimSpace(rcpt) == "" || strings.ContainsAny(rcpt, "\r\n") {
			return errors.New("mail: invalid recipient")
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("mail: invalid subject")
	}
	return nil
}

// Report lists per-recipient outcomes. Any rejected recipient means the
// delivery did not succeed.
type Report struct {
	Accepted []string
	Rejected []string
}

func (r Report) Failed() bool { return len(r.Rejected) > 0 || len(r.Accepted) == 0 }

// Sender delivers messages. Errors are transport failures; recipient refusals
// are reported in Report.Rejected.
type Sender interface {
	Send(ctx context.Context, msg Message) (Report, error)
}
