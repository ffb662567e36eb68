package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Profile Errors =====
var (
	ErrProfileIncomplete = errors.New("date of birth and first name are required in your profile")
	ErrImageRequired     = errors.New("image is required")
)

// ===== Report Errors =====
var (
	ErrOnboardingIncomplete = errors.New("birth details are missing, complete the birth place step first")
	ErrReportNotFound       = errors.New("report not found")
	ErrNoReports            = errors.New("no completed reports found")
	ErrNoAnswers            = errors.New("no chat answers found, please answer some questions first")
	ErrLocationNotFound     = errors.New("could not find the birth place")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
)

// ===== Karmic Chat Errors =====
var (
	ErrFreeQuestionsExhausted = errors.New("all free questions have been used")
)

// ===== Wallet Errors =====
var (
	ErrInsufficientEthers = errors.New("insufficient ethers")
	ErrInvalidAmount      = errors.New("invalid ether amount")
	ErrUnknownReport      = errors.New("unknown report id")
)

// ===== Upstream Errors =====
var (
	ErrLLMNotConfigured        = errors.New("language model is not configured")
	ErrNumerologyNotConfigured = errors.New("numerology service is not configured")
	ErrStorageNotConfigured    = errors.New("image storage is not configured")
	ErrUpstream                = errors.New("external service failure")
)

// InsufficientEthersError carries the price and balance of a rejected debit.
// It matches ErrInsufficientEthers with errors.Is.
type InsufficientEthersError struct {
	Required int
	Balance  int
}

func (e *InsufficientEthersError) Error() string {
	return fmt.Sprintf("insufficient ethers: need %d, have %d", e.Required, e.Balance)
}

// Is reports whether target is ErrInsufficientEthers
func (e *InsufficientEthersError) Is(target error) bool {
	return target == ErrInsufficientEthers
}

// upstream wraps a provider failure so it matches ErrUpstream while
// keeping the provider error reachable
func upstream(service string, err error) error {
	return fmt.Errorf("%s: %w: %w", service, ErrUpstream, err)
}
