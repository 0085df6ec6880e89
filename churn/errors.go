package churn

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind separates client faults from server faults for the boundary layer.
type Kind int

const (
	// KindInternal covers unexpected failures during coercion, transform or inference.
	KindInternal Kind = iota
	// KindInvalidInput means the record is missing schema features.
	KindInvalidInput
	// KindUnavailable means the model or scaler failed to load.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

const unavailableMessage = "model or scaler not loaded"

// Error is returned by Service.Predict.
type Error struct {
	Kind Kind
	// Missing lists absent features in schema order, set for KindInvalidInput.
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidInput:
		return "missing features: " + strings.Join(e.Missing, ", ")
	case KindUnavailable:
		return unavailableMessage
	default:
		if e.Err == nil {
			return "prediction failed"
		}
		return "prediction failed: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var churnErr *Error
	if errors.As(err, &churnErr) {
		return churnErr.Kind
	}
	return KindInternal
}

// MissingOf returns the missing features carried by err, if any.
func MissingOf(err error) []string {
	var churnErr *Error
	if errors.As(err, &churnErr) {
		return churnErr.Missing
	}
	return nil
}

func invalidInput(missing []string) error {
	return &Error{Kind: KindInvalidInput, Missing: missing}
}

func unavailable(cause error) error {
	return &Error{Kind: KindUnavailable, Err: cause}
}

func internal(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindInternal, Err: errors.Wrapf(err, format, args...)}
}
