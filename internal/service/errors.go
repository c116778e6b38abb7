package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Common service errors. Every expected failure of a service operation is
// one of four kinds, and each specific error wraps its kind so callers can
// branch with errors.Is on either.
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in *ServiceError
// 3. The API layer maps the four kinds to HTTP status codes
var (
	// ErrNotFound: the referenced task, category or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the entity exists but the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: a uniqueness rule would be violated.
	ErrConflict = errors.New("conflict")

	// ErrInvalid: malformed input such as an unknown status or role.
	ErrInvalid = errors.New("invalid input")

	// ErrInvalidCredentials: login failed. The message never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var (
	ErrTaskNotFound     = fmt.Errorf("%w: task", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)

	ErrTaskAccessDenied       = fmt.Errorf("%w: no access to this task", ErrForbidden)
	ErrTaskEditDenied         = fmt.Errorf("%w: not allowed to update this task", ErrForbidden)
	ErrTaskDeleteDenied       = fmt.Errorf("%w: only the task owner can delete this task", ErrForbidden)
	ErrCollaboratorsDenied    = fmt.Errorf("%w: only task owners can manage collaborators", ErrForbidden)
	ErrCollaboratorListDenied = fmt.Errorf("%w: not allowed to view task collaborators", ErrForbidden)
	ErrCategoryAccessDenied   = fmt.Errorf("%w: category belongs to another user", ErrForbidden)

	ErrDuplicateTitle        = fmt.Errorf("%w: a task with this title already exists in this category", ErrConflict)
	ErrCollaboratorExists    = fmt.Errorf("%w: user is already a collaborator", ErrConflict)
	ErrDuplicateCategoryName = fmt.Errorf("%w: a category with this name already exists", ErrConflict)
	ErrEmailTaken            = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrUserInUse             = fmt.Errorf("%w: user still owns or is assigned tasks", ErrConflict)

	ErrInvalidStatus = fmt.Errorf("%w: unknown task status", ErrInvalid)
	ErrInvalidRole   = fmt.Errorf("%w: unknown collaboration role", ErrInvalid)
	ErrNilTask       = fmt.Errorf("%w: task is required", ErrInvalid)
	ErrInvalidPeriod = fmt.Errorf("%w: period bounds are required", ErrInvalid)
)

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	Component string // e.g. "task_service"
	Operation string // e.g. "create_task"
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Component, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// isExpected reports whether err already belongs to one of the service kinds.
func isExpected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrInvalidCredentials)
}

// wrapError returns expected errors unchanged, translates domain validation
// and constraint failures to ErrInvalid, and wraps anything else in a
// *ServiceError.
func wrapError(component, operation, message string, err error) error {
	switch {
	case err == nil:
		return nil
	case isExpected(err):
		return err
	case errors.Is(err, domain.ErrValidation):
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: referenced entity does not exist", ErrInvalid)
	}
	return &ServiceError{
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
