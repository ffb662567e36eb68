package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorCode is the numeric code carried in every problem response. The
// thousands digit groups codes by area.
type ErrorCode int

const (
	// Authentication (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004

	// Resources (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003

	// Input, balance and allowance (4xxx)
	ErrCodeValidation          ErrorCode = 4001
	ErrCodeInvalidInput        ErrorCode = 4002
	ErrCodeInsufficientEthers  ErrorCode = 4004
	ErrCodeQuotaExhausted      ErrorCode = 4005
	ErrCodeRateLimited         ErrorCode = 4006
	ErrCodePreconditionMissing ErrorCode = 4007

	// Server and upstream (5xxx)
	ErrCodeInternal       ErrorCode = 5001
	ErrCodeDatabase       ErrorCode = 5002
	ErrCodeExternalAPI    ErrorCode = 5003
	ErrCodeNotConfigured  ErrorCode = 5004
	ErrCodeStorageFailure ErrorCode = 5005
)

const errorTypeBase = "https://api.eternal-ai.app/errors/"

// ProblemDetails is an RFC 9457 problem document. Code, Limit and Current
// are extension members.
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Code     ErrorCode    `json:"code,omitempty"`
	Limit    *int         `json:"limit,omitempty"`
	Current  *int         `json:"current,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// problemKind fixes the type slug, title and status of a family of
// problems
type problemKind struct {
	slug   string
	title  string
	status int
	code   ErrorCode
}

var (
	kindUnauthorized  = problemKind{"unauthorized", "Unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized}
	kindNotFound      = problemKind{"not-found", "Not Found", http.StatusNotFound, ErrCodeNotFound}
	kindConflict      = problemKind{"conflict", "Conflict", http.StatusConflict, ErrCodeConflict}
	kindBadRequest    = problemKind{"bad-request", "Bad Request", http.StatusBadRequest, ErrCodeInvalidInput}
	kindValidation    = problemKind{"validation", "Validation Error", http.StatusUnprocessableEntity, ErrCodeValidation}
	kindPrecondition  = problemKind{"precondition-missing", "Precondition Missing", http.StatusUnprocessableEntity, ErrCodePreconditionMissing}
	kindEthers        = problemKind{"insufficient-ethers", "Insufficient Ethers", http.StatusPaymentRequired, ErrCodeInsufficientEthers}
	kindQuota         = problemKind{"quota-exhausted", "Quota Exhausted", http.StatusTooManyRequests, ErrCodeQuotaExhausted}
	kindRateLimited   = problemKind{"rate-limited", "Too Many Requests", http.StatusTooManyRequests, ErrCodeRateLimited}
	kindInternal      = problemKind{"internal", "Internal Server Error", http.StatusInternalServerError, ErrCodeInternal}
	kindExternal      = problemKind{"external-service", "External Service Error", http.StatusBadGateway, ErrCodeExternalAPI}
	kindNotConfigured = problemKind{"not-configured", "Service Unavailable", http.StatusServiceUnavailable, ErrCodeNotConfigured}
	kindUnavailable   = problemKind{"unavailable", "Service Unavailable", http.StatusServiceUnavailable, ErrCodeDatabase}
)

func (k problemKind) new(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errorTypeBase + k.slug,
		Title:  k.title,
		Status: k.status,
		Detail: detail,
		Code:   k.code,
	}
}

func (p *ProblemDetails) Error() string {
	if p.Detail == "" {
		return strconv.Itoa(p.Status) + " " + p.Title
	}
	return fmt.Sprintf("%d %s: %s", p.Status, p.Title, p.Detail)
}

// WithCode replaces the code, keeping type and status
func (p *ProblemDetails) WithCode(code ErrorCode) *ProblemDetails {
	p.Code = code
	return p
}

// WithInstance sets the URI of the request that failed
func (p *ProblemDetails) WithInstance(instance string) *ProblemDetails {
	p.Instance = instance
	return p
}

// WriteJSON writes the problem as application/problem+json
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func NewUnauthorizedError(detail string) *ProblemDetails {
	return kindUnauthorized.new(detail)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return kindNotFound.new(resource + " not found")
}

func NewConflictError(detail string) *ProblemDetails {
	return kindConflict.new(detail)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return kindBadRequest.new(detail)
}

// NewValidationError summarises the first field error in Detail and lists
// all of them in Errors
func NewValidationError(errs []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	switch len(errs) {
	case 0:
	case 1:
		detail = errs[0].Field + ": " + errs[0].Message
	default:
		detail = fmt.Sprintf("%s: %s (and %d more errors)", errs[0].Field, errs[0].Message, len(errs)-1)
	}
	p := kindValidation.new(detail)
	p.Errors = errs
	return p
}

// NewPreconditionError reports data that must exist before the request
// can run, such as an incomplete profile
func NewPreconditionError(detail string) *ProblemDetails {
	return kindPrecondition.new(detail)
}

// NewInsufficientEthersError reports a balance below the price of the
// request. Limit carries the price and Current the balance.
func NewInsufficientEthersError(required, balance int) *ProblemDetails {
	p := kindEthers.new(fmt.Sprintf("This action costs %d ethers, balance is %d", required, balance))
	p.Limit, p.Current = &required, &balance
	return p
}

// NewQuotaExhaustedError reports a used up free allowance
func NewQuotaExhaustedError(resource string, limit int) *ProblemDetails {
	p := kindQuota.new(fmt.Sprintf("All %d free %s have been used", limit, resource))
	p.Limit = &limit
	return p
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return kindRateLimited.new(fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return kindInternal.new(detail)
}

// NewExternalServiceError reports a failed call to an upstream API
func NewExternalServiceError(service, detail string) *ProblemDetails {
	if detail == "" {
		detail = service + " is unavailable"
	}
	return kindExternal.new(detail)
}

// NewNotConfiguredError reports a feature whose backing service has no
// credentials on this deployment
func NewNotConfiguredError(feature string) *ProblemDetails {
	return kindNotConfigured.new(feature + " is not configured")
}

// NewUnavailableError reports a dependency that failed its health check
func NewUnavailableError(detail string) *ProblemDetails {
	return kindUnavailable.new(detail)
}
