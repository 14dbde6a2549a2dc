/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable identifier of a registry failure.
type Code string

const (
	CodeMissingDependency     Code = "missing_dependency"
	CodeDuplicateInitiation   Code = "duplicate_initiation"
	CodeDuplicateRegistration Code = "duplicate_registration"
	CodeModificationFailed    Code = "modification_failed"
	CodeUnknownIdentifier     Code = "unknown_identifier"
	CodeInactiveRegistry      Code = "inactive_registry"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = errors.New("document not found")

	// ErrIndexNotFound is returned by index clients when the backing index does not exist
	ErrIndexNotFound = errors.New("index not found")

	// ErrAlreadyExists is returned when attempting to create a document that already exists
	ErrAlreadyExists = errors.New("document already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	ErrMissingDependency     = errors.New("index client dependency is missing")
	ErrDuplicateInitiation   = errors.New("registry already initiated for section")
	ErrDuplicateRegistration = errors.New("identifier already registered")
	ErrModificationFailed    = errors.New("modification of unregistered identifier failed")
	ErrUnknownIdentifier     = errors.New("unknown identifier")
	ErrInactiveRegistry      = errors.New("registry is not active")

	// ErrTruncated is returned when a listing holds more entries than it may return
	ErrTruncated = errors.New("listing truncated")
)

var sentinels = map[Code]error{
	CodeMissingDependency:     ErrMissingDependency,
	CodeDuplicateInitiation:   ErrDuplicateInitiation,
	CodeDuplicateRegistration: ErrDuplicateRegistration,
	CodeModificationFailed:    ErrModificationFailed,
	CodeUnknownIdentifier:     ErrUnknownIdentifier,
	CodeInactiveRegistry:      ErrInactiveRegistry,
}

// RegistryError is raised by registry operations. It carries a stable Code and
// matches the sentinel for that code through errors.Is.
type RegistryError struct {
	Code       Code
	Message    string
	Section    string
	Identifier string
	Err        error
}

func (e *RegistryError) Error() string {
	msg := e.Message
	if e.Section != "" {
		msg = fmt.Sprintf("%s (section %q", msg, e.Section)
		if e.Identifier != "" {
			msg = fmt.Sprintf("%s, identifier %q", msg, e.Identifier)
		}
		msg += ")"
	} else if e.Identifier != "" {
		msg = fmt.Sprintf("%s (identifier %q)", msg, e.Identifier)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RegistryError) Is(target error) bool {
	return sentinels[e.Code] == target
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// NotFoundError represents an error when a document is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a document already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// IndexNotFoundError is returned when an index does not exist on the backend
type IndexNotFoundError struct {
	Index string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index %q not found", e.Index)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewMissingDependencyError reports a registry constructed without an index client.
func NewMissingDependencyError(dependency string) error {
	return &RegistryError{
		Code:    CodeMissingDependency,
		Message: fmt.Sprintf("missing dependency: %s", dependency),
	}
}

// NewDuplicateInitiationError reports a second Init on an active section.
func NewDuplicateInitiationError(section string) error {
	return &RegistryError{
		Code:    CodeDuplicateInitiation,
		Message: "duplicate initiation attempt",
		Section: section,
	}
}

// NewDuplicateRegistrationError reports an attempt to register a known identifier.
func NewDuplicateRegistrationError(section, identifier string) error {
	return &RegistryError{
		Code:       CodeDuplicateRegistration,
		Message:    "duplicate registration attempt",
		Section:    section,
		Identifier: identifier,
	}
}

// NewModificationFailedError reports an attempt to replace an unknown identifier.
func NewModificationFailedError(section, identifier string) error {
	return &RegistryError{
		Code:       CodeModificationFailed,
		Message:    "modification attempt failed",
		Section:    section,
		Identifier: identifier,
	}
}

// NewUnknownIdentifierError reports an operation on an identifier that is not registered.
func NewUnknownIdentifierError(section, identifier string) error {
	return &RegistryError{
		Code:       CodeUnknownIdentifier,
		Message:    "unknown identifier",
		Section:    section,
		Identifier: identifier,
	}
}

// NewInactiveRegistryError reports use of a registry that has no active index.
func NewInactiveRegistryError(section string) error {
	return &RegistryError{
		Code:    CodeInactiveRegistry,
		Message: "registry is not active",
		Section: section,
	}
}

// TruncatedError reports a section holding more documents than the list limit
type TruncatedError struct {
	Section string
	Limit   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("section %q holds more than %d documents", e.Section, e.Limit)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// NewTruncatedError creates a new TruncatedError
func NewTruncatedError(section string, limit int) error {
	return &TruncatedError{Section: section, Limit: limit}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(docType, key string) error {
	return &NotFoundError{Type: docType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(docType, key string) error {
	return &AlreadyExistsError{Type: docType, Key: key}
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(index string) error {
	return &IndexNotFoundError{Index: index}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CodeOf returns the registry code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return "", false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIndexNotFound checks if an error reports a missing index
func IsIndexNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsMissingDependency(err error) bool {
	return errors.Is(err, ErrMissingDependency)
}

func IsDuplicateInitiation(err error) bool {
	return errors.Is(err, ErrDuplicateInitiation)
}

func IsDuplicateRegistration(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration)
}

func IsModificationFailed(err error) bool {
	return errors.Is(err, ErrModificationFailed)
}

func IsUnknownIdentifier(err error) bool {
	return errors.Is(err, ErrUnknownIdentifier)
}

func IsInactiveRegistry(err error) bool {
	return errors.Is(err, ErrInactiveRegistry)
}

// IsTruncated checks if a listing stopped at its limit
func IsTruncated(err error) bool {
	return errors.Is(err, ErrTruncated)
}
