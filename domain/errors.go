package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	// ErrCodeNotFound deliberately covers both "does not exist" and "exists
	// but the actor may not touch it", so responses never leak whether a
	// resource exists to actors without access.
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeValidation       ErrorCode = "VALIDATION"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeMissingRefs      ErrorCode = "MISSING_REFERENCES"
	ErrCodeSelfModification ErrorCode = "SELF_MODIFICATION"
	ErrCodeProtectedTarget  ErrorCode = "PROTECTED_TARGET"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInternal         ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error

	// Refs lists the unresolved identity references for MISSING_REFERENCES.
	Refs []string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewMissingReferences reports share/unshare requests naming unknown users.
func NewMissingReferences(refs []string) *Error {
	return &Error{
		Code:    ErrCodeMissingRefs,
		Message: fmt.Sprintf("users not found: %s", strings.Join(refs, ", ")),
		Refs:    refs,
	}
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden       = NewError(ErrCodeForbidden, "forbidden")
	ErrEmailTaken      = NewError(ErrCodeConflict, "email already registered")
	ErrInvalidPayload  = NewError(ErrCodeValidation, "invalid payload")
	ErrOwnerImmutable  = NewError(ErrCodeValidation, "owner cannot be changed")
	ErrSelfRoleChange  = NewError(ErrCodeSelfModification, "you cannot change your own role")
	ErrSelfAdminDelete = NewError(ErrCodeSelfModification, "use account deletion to remove your own account")
	ErrProtectedTarget = NewError(ErrCodeProtectedTarget, "this user is protected and cannot be modified")
	ErrInvalidRole     = NewError(ErrCodeInvalidRole, "invalid role")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
