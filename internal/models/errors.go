package models

import (
	"errors"
	"fmt"
)

// Error codes for validation failures shown to the user.
const (
	ErrCodeRequired     = "REQUIRED"
	ErrCodeInvalid      = "INVALID"
	ErrCodeInvalidRange = "INVALID_RANGE"
	ErrCodeNoVehicle    = "NO_VEHICLE"
	ErrCodeNoActiveTrip = "NO_ACTIVE_TRIP"
	ErrCodeTripActive   = "TRIP_ACTIVE"
	ErrCodeNotFound     = "NOT_FOUND"
)

// Sentinel errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrNoVehicle        = errors.New("no vehicle selected")
	ErrTitleRequired    = errors.New("trip title is required")
	ErrOdometerRequired = errors.New("odometer reading is required")
	ErrInvalidNumber    = errors.New("value is not a number")
	ErrInvalidRange     = errors.New("odometer end is before odometer start")
	ErrNoActiveTrip     = errors.New("no active trip")
	ErrTripActive       = errors.New("a trip is already active")
	ErrNotFound         = errors.New("not found")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrInvalidMonth     = errors.New("month must be YYYY-MM")
	ErrInvalidTime      = errors.New("time must be HH:MM")
	ErrNegative         = errors.New("value must not be negative")
	ErrTemplateType     = errors.New("template type must be trip or leg")
)

// ValidationError is a user-facing rejection of an operation. The state is
// left unchanged whenever one is returned.
type ValidationError struct {
	Code  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Field, e.Code, e.Err)
	}
	return fmt.Sprintf("[%s]: %v", e.Code, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation in addition to the wrapped cause.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(code, field string, err error) *ValidationError {
	return &ValidationError{Code: code, Field: field, Err: err}
}

// NotFoundError names the record that was looked up.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsValidation reports whether err is a user-facing validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
