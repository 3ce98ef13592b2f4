// Package apperrors classifies failures so that command handlers, the saga
// engine and HTTP handlers can react to them uniformly.
package apperrors

import (
	"github.com/pkg/errors"
)

var (
	// ErrValidation marks malformed input. It is rejected synchronously.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedStateTransition marks a transition that is not legal
	// from the aggregate's current state.
	ErrUnsupportedStateTransition = errors.New("unsupported state transition")

	// ErrBusinessRule marks a legal transition refused by a domain rule.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrOptimisticLock marks a concurrent write detected through the version column.
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrNotFound marks a missing aggregate.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks infrastructure failures worth a redelivery.
	ErrTransient = errors.New("transient failure")
)

// Validation wraps a message as an ErrValidation.
func Validation(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// UnsupportedTransition reports an illegal transition attempted from state.
func UnsupportedTransition(aggregate, transition, state string) error {
	return errors.Wrapf(ErrUnsupportedStateTransition, "%s: cannot %s in state %s", aggregate, transition, state)
}

// BusinessRule wraps a message as an ErrBusinessRule.
func BusinessRule(format string, args ...interface{}) error {
	return errors.Wrapf(ErrBusinessRule, format, args...)
}

// NotFound reports a missing aggregate of the given kind.
func NotFound(kind string, id string) error {
	return errors.Wrapf(ErrNotFound, "%s %s", kind, id)
}

// Transient wraps err so that the transport retries the message.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(ErrTransient, err.Error())
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsStateTransition reports whether err is an illegal transition.
func IsStateTransition(err error) bool { return errors.Is(err, ErrUnsupportedStateTransition) }

// IsBusinessRule reports whether err is a domain rule violation.
func IsBusinessRule(err error) bool { return errors.Is(err, ErrBusinessRule) }

// IsNotFound reports whether err is a missing aggregate.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsOptimisticLock reports whether err is a version conflict.
func IsOptimisticLock(err error) bool { return errors.Is(err, ErrOptimisticLock) }

// IsTransient reports whether err should be redelivered instead of answered.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }
