// Package middleware provides HTTP middleware for the Eternal AI API.
//
// # Available Middleware
//
//   - Auth / OptionalAuth: bearer token validation. Service access tokens
//     are tried first, then Firebase ID tokens through FirebaseVerifier.
//   - RateLimit: token bucket per user, or per client IP when anonymous
//   - Idempotency: replays responses of POST and PATCH requests carrying
//     an Idempotency-Key header
//   - RequestID, Logger, Recovery, CORS, Compress
//
// # Authentication
//
//	protected := middleware.Auth(middleware.AuthConfig{
//		Tokens:   tokenService,
//		IDTokens: firebaseVerifier,
//		Users:    profileService,
//	})
//
// After authentication handlers read the caller from the context:
//
//	userID := middleware.GetUserID(r.Context())
//
// A Firebase identity seen for the first time gets a profile through
// UserProvisioner.EnsureUser.
//
// # Errors
//
// Rejections are written as application/problem+json using the model
// package constructors.
package middleware
