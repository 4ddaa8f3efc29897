package jobboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/mail"
	"jobsearch.app/internal/obs"
)

const defaultBaseURL = "http://localhost:8080"

// Service implements account, company, job and application operations on
// top of a Store. Deletes are delegated to the Cascade coordinator.
type Service struct {
	store   Store
	tokens  *auth.Service
	mailer  mail.Sender
	cascade *Cascade
	baseURL string
	now     func() time.Time
}

// Option configures Service behavior.
type Option func(*Service) error

// WithBaseURL sets the public origin used in links sent by email.
func WithBaseURL(u string) Option {
	return func(s *Service) error {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u == "" {
			return errors.New("jobboard: base url is empty")
		}
		s.baseURL = u
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

func NewService(store Store, tokens *auth.Service, mailer mail.Sender, opts ...Option) (*Service, error) {
	if store == nil || tokens == nil || mailer == nil {
		return nil, errors.New("jobboard: store, tokens and mailer are required")
	}
	s := &Service{
		store:   store,
		tokens:  tokens,
		mailer:  mailer,
		cascade: NewCascade(store, tokens),
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Cascade exposes the delete coordinator.
func (s *Service) Cascade() *Cascade { return s.cascade }

// Store exposes the underlying store.
func (s *Service) Store() Store { return s.store }

func (s *Service) deliver(ctx context.Context, msg mail.Message) error {
	report, err := s.mailer.Send(ctx, msg)
	if err != nil {
		obs.MailDeliveries.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if report.Failed() {
		obs.MailDeliveries.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: rejected %s", ErrDeliveryFailed, strings.Join(report.Rejected, ", "))
	}
	obs.MailDeliveries.WithLabelValues("sent").Inc()
	return nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
