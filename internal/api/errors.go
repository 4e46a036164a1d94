package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/service/quiz"
	"github.com/phrazzld/vocab-api/internal/service/study"
	"github.com/phrazzld/vocab-api/internal/store"
)

// MapErrorToStatusCode maps service and store errors to HTTP status codes
// without exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err),
		study.IsConflict(err):
		return http.StatusConflict

	case errors.Is(err, quiz.ErrNotEnoughItems):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidStudyMode),
		errors.Is(err, quiz.ErrInvalidDirection),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrInvalidBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	case errors.Is(err, study.ErrNothingToStudy):
		return http.StatusNoContent

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not have access to this resource"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Study session not found"
	case store.IsNotFoundError(err):
		return "Not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, store.ErrTermExists):
		return "An item with this term already exists"
	case errors.Is(err, study.ErrOutOfOrder):
		return "Item is not the current item of the session"
	case errors.Is(err, study.ErrSessionComplete):
		return "Study session has no items left"
	case errors.Is(err, domain.ErrSessionFinished):
		return "Study session is already finished"

	case errors.Is(err, quiz.ErrNotEnoughItems):
		return "Not enough items for a quiz"

	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be between 0 and 5"
	case errors.Is(err, domain.ErrInvalidStudyMode):
		return "Mode must be learn or review"
	case errors.Is(err, quiz.ErrInvalidDirection):
		return "Invalid quiz direction"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid request format"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return validationMessage(err)

	default:
		return "An unexpected error occurred"
	}
}

// validationMessage exposes the domain rule that failed. Domain validation
// messages are fixed strings and safe to show.
func validationMessage(err error) string {
	for _, known := range []error{
		domain.ErrItemTermEmpty,
		domain.ErrItemTermTooLong,
		domain.ErrItemTranslationEmpty,
		domain.ErrInvalidEmail,
		domain.ErrEmptyEmail,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
		domain.ErrEmptyPassword,
		domain.ErrInvalidTimezone,
	} {
		if errors.Is(err, known) {
			msg := known.Error()
			return strings.ToUpper(msg[:1]) + msg[1:]
		}
	}
	return "Validation error"
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failed field.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}
	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte", "lte":
		return "out of range"
	case "timezone":
		return "unknown time zone"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the mapped status and safe message for err. A
// non-empty fallback replaces the generic message on 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
