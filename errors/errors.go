// Package errors provides error handling for pbts.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints for the person running the generator
//
// Usage:
//
//	// Wrap with context
//	if err := loadSet(path); err != nil {
//	    return errors.Wrapf(err, "failed to load %s", path)
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run protoc with --include_imports")
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnresolvedReference) {
//	    // report the missing type
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	Mark               = crdb.Mark
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	IsAssertionFailure               = crdb.IsAssertionFailure
)

// Sentinel errors for generation failures.
// Use these with errors.Is(); wrap them to add context while preserving the type.
var (
	// ErrUnresolvedReference indicates a field or method names a type that is not in the schema graph
	ErrUnresolvedReference = New("unresolved reference")

	// ErrAliasExhausted indicates no free import alias could be derived for a target
	ErrAliasExhausted = New("import alias exhausted")

	// ErrWriteFailed indicates an output file could not be written
	ErrWriteFailed = New("write failed")

	// ErrInvalidSchema indicates the descriptor input could not be turned into a schema graph
	ErrInvalidSchema = New("invalid schema")

	// ErrOutOfDate indicates generated output on disk differs from a fresh generation
	ErrOutOfDate = New("generated output is out of date")
)

// UnresolvedReference is reported once per occurrence of a reference to a
// type or enum that the schema graph does not contain.
type UnresolvedReference struct {
	// Referrer is the full name of the field or method holding the reference
	Referrer string
	// Target is the full name the referrer expected to find
	Target string
}

func (e *UnresolvedReference) Error() string {
	return fmt.Sprintf("%s references unknown type %s", e.Referrer, e.Target)
}

// Unwrap lets errors.Is match ErrUnresolvedReference.
func (e *UnresolvedReference) Unwrap() error {
	return ErrUnresolvedReference
}

// NewUnresolvedReference creates an unresolved-reference diagnostic with a stack.
func NewUnresolvedReference(referrer, target string) error {
	return WithStack(&UnresolvedReference{Referrer: referrer, Target: target})
}

// IsUnresolvedReference checks if an error is or wraps ErrUnresolvedReference
func IsUnresolvedReference(err error) bool {
	return err != nil && Is(err, ErrUnresolvedReference)
}

// WrapWriteFailed marks err as a write failure for path
func WrapWriteFailed(err error, path string) error {
	return Mark(Wrapf(err, "failed to write %s", path), ErrWriteFailed)
}
