// Package service implements the business logic layer for the Eternal AI API.
//
// The service package contains the report pipelines, the chats, the wallet
// and authentication. Services are the primary abstraction between HTTP
// handlers and data access; they assume requests were validated by the
// handler.
//
// # Service Pattern
//
// Constructors (NewXxxService) accept a config struct with repository and
// provider dependencies. Services define their own repository and provider
// interfaces, so tests run against in-memory mocks and fakes.
//
// # Upstream Providers
//
// Language model, geocoding, Vedastro and numerology clients are optional.
// A missing language model yields ErrLLMNotConfigured except where a
// scripted fallback exists (the onboarding guide). Provider failures are
// wrapped so they match ErrUpstream with errors.Is.
//
// # Error Handling
//
// Services return the sentinel errors in errors.go, wrapped for context:
//
//	var (
//	    ErrNoReports          = errors.New("no completed reports found")
//	    ErrInsufficientEthers = errors.New("insufficient ethers")
//	)
//
// # Example Usage
//
//	wallet := NewWalletService(WalletServiceConfig{UserRepo: userRepository})
//	result, err := wallet.Unlock(ctx, userID, model.UnlockRequest{
//	    ReportIDs: []string{model.ReportAuraProfile},
//	})
package service
