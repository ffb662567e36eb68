package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/pkg/jwt"
)

// AuthService defines the interface for token validation
type AuthService interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// IDTokenVerifier verifies identity provider tokens such as Firebase ID
// tokens and returns them as claims
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*jwt.Claims, error)
}

// UserProvisioner creates the profile of an identity seen for the first time
type UserProvisioner interface {
	EnsureUser(ctx context.Context, userID, email, name string) (*model.User, error)
}

// AuthConfig holds the token validators used by Auth and OptionalAuth.
// IDTokens and Users are optional.
type AuthConfig struct {
	Tokens   AuthService
	IDTokens IDTokenVerifier
	Users    UserProvisioner
}

// authenticator resolves bearer tokens into claims
type authenticator struct {
	cfg AuthConfig

	// provisioned remembers identity provider users already ensured
	provisioned sync.Map
}

func newAuthenticator(cfg AuthConfig) *authenticator {
	return &authenticator{cfg: cfg}
}

// authenticate validates the token as an access token first and as an ID
// token second
func (a *authenticator) authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := a.cfg.Tokens.ValidateAccessToken(token)
	if err == nil {
		return claims, nil
	}
	if a.cfg.IDTokens == nil || errors.Is(err, jwt.ErrTokenExpired) {
		return nil, err
	}

	idClaims, idErr := a.cfg.IDTokens.Verify(ctx, token)
	if idErr != nil {
		return nil, err
	}
	a.provision(ctx, idClaims)
	return idClaims, nil
}

func (a *authenticator) provision(ctx context.Context, claims *jwt.Claims) {
	if a.cfg.Users == nil {
		return
	}
	if _, seen := a.provisioned.Load(claims.UserID); seen {
		return
	}
	if _, err := a.cfg.Users.EnsureUser(ctx, claims.UserID, claims.Email, claims.Name); err != nil {
		slog.Warn("provisioning user failed", "user_id", claims.UserID, "error", err)
		return
	}
	a.provisioned.Store(claims.UserID, struct{}{})
}

// bearerToken extracts the token of an Authorization header
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	if entry, ok := ctx.Value(logEntryKey).(*logEntry); ok {
		entry.userID = claims.UserID
	}
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// Auth returns a middleware that validates JWT tokens
func Auth(cfg AuthConfig) Middleware {
	a := newAuthenticator(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := a.authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// UserEmailKey is the context key for user email
const UserEmailKey contextKey = "userEmail"

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserEmail extracts the user email from context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// OptionalAuth is like Auth but doesn't require authentication
// It will set user info in context if token is present and valid
func OptionalAuth(cfg AuthConfig) Middleware {
	a := newAuthenticator(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := a.authenticate(r.Context(), token)
			if err != nil {
				// Invalid token, but optional so continue without auth
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// WithUserID returns a context authenticated as userID. Tests and internal
// callers use it to skip token validation.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withClaims(ctx, &jwt.Claims{UserID: userID})
}
