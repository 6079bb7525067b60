// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrInputValidation    = errors.New("input validation failed")
	ErrInvalidRelation    = errors.New("invalid price relationship")
	ErrZeroRisk           = errors.New("stop loss equals entry price")
	ErrShortNotSupported  = errors.New("entry must be above stop loss for long positions")
	ErrRiskTooSmall       = errors.New("risk amount too small to buy one share")
	ErrCalculation        = errors.New("calculation failed")
	ErrUnknownTransition  = errors.New("unknown transition")
	ErrStageLocked        = errors.New("stage is locked")
	ErrNoStyle            = errors.New("no trading style selected")
	ErrUnknownStyle       = errors.New("unknown trading style")
	ErrUnknownCheck       = errors.New("unknown check")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrCorruptSnapshot    = errors.New("corrupt snapshot")
	ErrSnapshotExpired    = errors.New("snapshot expired")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrKeyNotFound        = errors.New("key not found")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// InputError is a single-field validation failure.
type InputError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInputValidation
}

// NewInputError creates a new InputError.
func NewInputError(field string, value interface{}, message string) *InputError {
	return &InputError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// RelationshipError is a cross-field invariant violation. Field names the input
// the user should correct; Fields lists every input involved.
type RelationshipError struct {
	Field   string
	Fields  []string
	Message string
	Err     error
}

func (e *RelationshipError) Error() string {
	return fmt.Sprintf("relationship error [%s]: %s", strings.Join(e.Fields, ", "), e.Message)
}

func (e *RelationshipError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidRelation
}

// NewRelationshipError creates a new RelationshipError.
func NewRelationshipError(field string, fields []string, message string, err error) *RelationshipError {
	return &RelationshipError{
		Field:   field,
		Fields:  fields,
		Message: message,
		Err:     err,
	}
}

// StorageError represents a failed local storage operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error [%s %s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// TransitionError represents a rejected checklist transition.
type TransitionError struct {
	Action string
	Step   string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s rejected at %s: %v", e.Action, e.Step, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(action, step string, err error) *TransitionError {
	return &TransitionError{
		Action: action,
		Step:   step,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// FieldOf returns the offending field for input and relationship errors.
func FieldOf(err error) string {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return inErr.Field
	}
	var relErr *RelationshipError
	if errors.As(err, &relErr) {
		return relErr.Field
	}
	return ""
}
