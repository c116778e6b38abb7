package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// MapErrorToStatusCode maps an error to an HTTP status code by its kind.
// Anything unrecognized is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrRevokedToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalid),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// safeMessages maps specific errors to client-facing messages. The first
// match wins, so specific errors come before the kinds they wrap.
var safeMessages = []struct {
	err     error
	message string
}{
	{auth.ErrExpiredToken, "Token expired"},
	{auth.ErrRevokedToken, "Token revoked"},
	{auth.ErrInvalidToken, "Invalid token"},
	{auth.ErrTokenNotYetValid, "Invalid token"},
	{auth.ErrMissingToken, "Authorization header required"},
	{auth.ErrInvalidRefreshToken, "Invalid refresh token"},
	{auth.ErrExpiredRefreshToken, "Invalid refresh token"},
	{auth.ErrWrongTokenType, "Invalid refresh token"},
	{service.ErrInvalidCredentials, "Invalid credentials"},

	{service.ErrTaskNotFound, "Task not found"},
	{service.ErrCategoryNotFound, "Category not found"},
	{service.ErrUserNotFound, "User not found"},

	{service.ErrTaskAccessDenied, "You do not have access to this task"},
	{service.ErrTaskEditDenied, "You do not have permission to update this task"},
	{service.ErrTaskDeleteDenied, "Only the task owner can delete this task"},
	{service.ErrCollaboratorsDenied, "Only task owners can manage collaborators"},
	{service.ErrCollaboratorListDenied, "You do not have permission to view this task's collaborators"},
	{service.ErrCategoryAccessDenied, "You do not have access to this category"},

	{service.ErrDuplicateTitle, "A task with this title already exists in this category"},
	{service.ErrCollaboratorExists, "User is already a collaborator on this task"},
	{service.ErrDuplicateCategoryName, "A category with this name already exists"},
	{service.ErrEmailTaken, "Email already exists"},
	{service.ErrUserInUse, "User still has tasks and cannot be deleted"},

	{service.ErrInvalidStatus, "Invalid task status"},
	{service.ErrInvalidRole, "Invalid collaboration role"},
	{service.ErrInvalidPeriod, "Start and end dates are required"},
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	for _, m := range safeMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "Invalid input: " + verr.Error()
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, service.ErrForbidden):
		return "Access denied"
	case errors.Is(err, service.ErrConflict):
		return "Resource already exists"
	case errors.Is(err, service.ErrInvalid), errors.Is(err, domain.ErrValidation):
		return "Invalid input"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. For a 500,
// fallback replaces the generic message when it is non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns a validator error into a message naming the
// first offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Validation error"
	}
	fe := fieldErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe))
}

func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	case "dive":
		return "invalid element"
	default:
		return "validation failed"
	}
}
