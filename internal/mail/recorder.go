package mail

import (
	"context"
	"strings"
	"sync"

	"jobsearch.app/internal/obs"
)

// Recorder accepts every message, keeps it in memory and logs a summary.
// Addresses added with Reject are refused. Used in development and tests.
type Recorder struct {
	mu       sync.Mutex
	sent     []Message
	rejected map[string]struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{rejected: make(map[string]struct{})}
}

// Reject makes future deliveries to addr fail.
func (r *Recorder) Reject(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[strings.ToLower(addr)] = struct{}{}
}

func (r *Recorder) Send(_ context.Context, msg Message) (Report, error) {
	if err := msg.Validate(); err != nil {
		return Report{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var report Report
	for _, rcpt := range msg.To {
		if _, no := r.rejected[strings.ToLower(rcpt)]; no {
			report.Rejected = append(report.Rejected, rcpt)
			continue
		}
		report.Accepted = append(report.Accepted, rcpt)
	}
	if len(report.Accepted) > 0 {
		r.sent = append(r.sent, msg)
	}
	obs.Logger().WithField("to", msg.To).WithField("subject", msg.Subject).
		WithField("rejected", len(report.Rejected)).Info("mail recorded")
	return report, nil
}

// Sent returns a copy of accepted messages in delivery order.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// Last returns the most recent message sent to addr.
func (r *Recorder) Last(addr string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		for _, rcpt := range r.sent[i].To {
			if strings.EqualFold(rcpt, addr) {
				return r.sent[i], true
			}
		}
	}
	return Message{}, false
}
