package jobboard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers both missing entities and entities the caller does
	// not own; the two are indistinguishable to callers.
	ErrNotFound = errors.New("not found")
	// ErrAbsent is a plain lookup miss on a public resource.
	ErrAbsent             = errors.New("absent")
	ErrConflict           = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotConfirmed       = errors.New("email address is not verified")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrDeliveryFailed     = errors.New("email delivery failed")
)

// ConflictError names the fields whose values collide with existing records.
type ConflictError struct {
	Entity string
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, strings.Join(e.Fields, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func conflict(entity string, fields ...string) error {
	return &ConflictError{Entity: entity, Fields: fields}
}
