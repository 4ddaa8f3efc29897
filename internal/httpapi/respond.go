package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/jobboard"
	"jobsearch.app/internal/obs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as an internal error without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *validationError
		cerr *jobboard.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.msg)
	case errors.Is(err, auth.ErrUnauthenticated):
		challenge(w, "")
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, auth.ErrInvalidToken):
		challenge(w, "invalid_token")
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrForbidden):
		challenge(w, "insufficient_scope")
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.As(err, &cerr):
		writeError(w, r, http.StatusBadRequest, conflictMessage(cerr))
	case errors.Is(err, jobboard.ErrNotFound),
		errors.Is(err, jobboard.ErrInvalidCredentials),
		errors.Is(err, jobboard.ErrNotConfirmed),
		errors.Is(err, jobboard.ErrInvalidOTP),
		errors.Is(err, jobboard.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobboard.ErrAbsent):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, jobboard.ErrDeliveryFailed):
		logFailure(r, err)
		writeError(w, r, http.StatusInternalServerError, "email could not be delivered")
	default:
		logFailure(r, err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func conflictMessage(e *jobboard.ConflictError) string {
	if len(e.Fields) == 0 {
		return e.Entity + " already exists"
	}
	return e.Entity + " already exists with this " + strings.Join(e.Fields, ", ")
}

func challenge(w http.ResponseWriter, code string) {
	v := `Bearer realm="jobsearch"`
	if code != "" {
		v += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", v)
}

func logFailure(r *http.Request, err error) {
	obs.Logger().WithError(err).
		WithField("request_id", RequestIDFromContext(r.Context())).
		WithField("method", r.Method).
		WithField("path", r.URL.Path).
		Error("request failed")
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return invalid("request body is required")
		case errors.As(err, &tooLarge):
			return invalid("request body too large")
		}
		return invalid("invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalid("unexpected data after JSON body")
	}
	return nil
}

// bind decodes the body into dst and validates it.
func bind(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validateStruct(dst)
}
