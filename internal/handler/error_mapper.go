package handler

import (
	"errors"
	"net/http"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
	"github.com/eternal-ai/api/internal/storage"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every handler goes through it so the same failure always gets the same
// status and problem type.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var short *service.InsufficientEthersError

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeLoginFailed)
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenInvalid)
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenExpired)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrReportNotFound):
		return model.NewNotFoundError("report")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewConflictError(service.ErrEmailAlreadyExists.Error()).WithCode(model.ErrCodeAlreadyExists)
	case errors.Is(err, database.ErrConflict):
		return model.NewConflictError("the document changed concurrently, retry the request")

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewValidationError([]model.FieldError{{Field: "email", Message: err.Error()}})
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "password", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidDate):
		return model.NewValidationError([]model.FieldError{{Field: "date", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidAmount):
		return model.NewValidationError([]model.FieldError{{Field: "amount", Message: err.Error()}})
	case errors.Is(err, service.ErrUnknownReport):
		return model.NewValidationError([]model.FieldError{{Field: "reportIds", Message: err.Error()}})
	case errors.Is(err, service.ErrImageRequired),
		errors.Is(err, storage.ErrImageTooLarge),
		errors.Is(err, storage.ErrInvalidImage):
		return model.NewValidationError([]model.FieldError{{Field: "image", Message: err.Error()}})
	case errors.Is(err, service.ErrLocationNotFound):
		return model.NewValidationError([]model.FieldError{{Field: "birthPlace", Message: err.Error()}})

	// Missing prerequisites
	case errors.Is(err, service.ErrProfileIncomplete),
		errors.Is(err, service.ErrOnboardingIncomplete),
		errors.Is(err, service.ErrNoReports):
		return model.NewPreconditionError(err.Error())
	case errors.Is(err, service.ErrNoAnswers):
		return model.NewPreconditionError("No chat answers found. Please answer some questions first.")

	// ===== Balance and Quota Errors =====
	case errors.As(err, &short):
		return model.NewInsufficientEthersError(short.Required, short.Balance)
	case errors.Is(err, service.ErrInsufficientEthers):
		return model.NewInsufficientEthersError(0, 0)
	case errors.Is(err, service.ErrFreeQuestionsExhausted):
		return model.NewQuotaExhaustedError("karmic chat questions", service.KarmicFreeQuestions)

	// ===== Missing Configuration → 503 / 500 =====
	case errors.Is(err, service.ErrProxyKeyMissing):
		return model.NewInternalError(service.ErrProxyKeyMissing.Error())
	case errors.Is(err, service.ErrLLMNotConfigured):
		return model.NewNotConfiguredError("language model")
	case errors.Is(err, service.ErrNumerologyNotConfigured):
		return model.NewNotConfiguredError("numerology service")
	case errors.Is(err, service.ErrStorageNotConfigured):
		return model.NewNotConfiguredError("image storage")

	// ===== Provider/External Errors → 502 =====
	case errors.Is(err, service.ErrUpstream):
		return model.NewExternalServiceError("upstream", err.Error())
	case errors.Is(err, storage.ErrUpload):
		return model.NewExternalServiceError("image storage", "").WithCode(model.ErrCodeStorageFailure)

	// ===== Default → 500 =====
	case errors.Is(err, database.ErrConnection), errors.Is(err, database.ErrQuery):
		return model.NewInternalError("").WithCode(model.ErrCodeDatabase)
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	// the missing proxy key is reported verbatim
	if pd != nil && pd.Status == http.StatusInternalServerError && !errors.Is(err, service.ErrProxyKeyMissing) {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
