// Package errors provides structured error records for the pipeline.
package errors

import (
	"fmt"
)

// Family identifies the subsystem an error originated from.
type Family string

const (
	// FamilyGraph indicates a hypergraph engine error
	FamilyGraph Family = "GRAPH"

	// FamilyCode indicates a CSS code engine error
	FamilyCode Family = "CODE"

	// FamilyRG indicates a renormalization error
	FamilyRG Family = "RG"

	// FamilyDictionary indicates an operator dictionary error
	FamilyDictionary Family = "DICTIONARY"

	// FamilyRng indicates a seeded randomness error
	FamilyRng Family = "RNG"

	// FamilySerde indicates a serialization error
	FamilySerde Family = "SERDE"
)

// Error represents a structured domain error. Code is a stable kebab-case
// identifier that callers and tests match on; Message is human readable.
type Error struct {
	Family  Family                 `json:"family"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
	Hint    string                 `json:"hint,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Family, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Family, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithHint attaches a remediation hint
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// New creates a new error
func New(family Family, code, message string) *Error {
	return &Error{
		Family:  family,
		Code:    code,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(family Family, code, format string, args ...interface{}) *Error {
	return &Error{
		Family:  family,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a structured record
func Wrap(family Family, code, message string, cause error) *Error {
	return &Error{
		Family:  family,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(family Family, code string, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Family:  family,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// CodeOf returns the stable code of a structured error, or "" for foreign errors.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsCode checks whether an error carries the given stable code
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// IsFamily checks whether an error belongs to the given family
func IsFamily(err error, family Family) bool {
	if e, ok := err.(*Error); ok {
		return e.Family == family
	}
	return false
}

// Graph creates a hypergraph engine error
func Graph(code, message string) *Error {
	return New(FamilyGraph, code, message)
}

// Code creates a CSS code engine error
func Code(code, message string) *Error {
	return New(FamilyCode, code, message)
}

// RG creates a renormalization error
func RG(code, message string) *Error {
	return New(FamilyRG, code, message)
}

// Serde creates a serialization error
func Serde(code, message string) *Error {
	return New(FamilySerde, code, message)
}

// Rng creates a seeded randomness error
func Rng(code, message string) *Error {
	return New(FamilyRng, code, message)
}
