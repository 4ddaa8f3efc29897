// Package audit records account and listing lifecycle events (sign up,
// company and job changes, applications, cascading deletes) as structured
// log entries.
package audit

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/obs"
)

type requestIDKey struct{}

// WithRequestID attaches the request identifier carried into audit entries.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// LogEvent writes one audit entry. Event names are dotted, entity first
// ("company.deleted"); the entity part is also logged on its own so entries
// can be filtered per entity. The acting principal, when the request carries
// one, is attached.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("audit: event name is required")
	}
	entity, _, _ := strings.Cut(event, ".")
	entry := logrus.Fields{
		"type":   "audit",
		"event":  event,
		"entity": entity,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok && p.UserID != "" {
		entry["user_id"] = p.UserID
		entry["role"] = p.Role.String()
	}
	detail := make(map[string]any, len(fields))
	for k, v := range fields {
		detail[k] = v
	}
	entry["fields"] = detail

	obs.Logger().WithFields(entry).Info(event)
	return nil
}
