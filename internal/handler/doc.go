// Package handler provides the HTTP handlers of the Eternal AI API.
//
// Handlers are grouped by feature area: auth, profile, onboarding, the
// report families (karmic, assessment, wellness, numerology), wallet and
// chat. Each handler struct wraps the services it needs and registers its
// own routes with RegisterRoutes, using Go 1.22 method patterns.
//
// # Request handling
//
// Every JSON body goes through decodeRequest, which caps the body size,
// rejects unknown fields and runs the request's Validate method. Services
// receive requests that already passed validation.
//
// # Response Format
//
//   - WriteData: a single resource as {"data": ..., "_links": ...}
//   - WriteCollection: a list with its count
//   - WriteJSON: raw JSON
//   - WriteError: RFC 9457 Problem Details
//
// Service errors are translated by MapServiceError. Unexpected failures
// are logged and returned as a generic 500 without internal detail.
//
// # Example Usage
//
//	mux := handler.NewRouter(handler.Handlers{
//	    Auth:   handler.NewAuthHandler(authService),
//	    Wallet: handler.NewWalletHandler(walletService),
//	    ...
//	}, middleware.Auth(authConfig))
package handler
