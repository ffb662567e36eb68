package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/pkg/jwt"
)

const (
	DefaultRefreshDuration = 30 * 24 * time.Hour

	refreshTokenBytes = 32
)

// TokenRepository stores refresh tokens by the hash of the opaque token
type TokenRepository interface {
	Save(ctx context.Context, token *model.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	// Revoke marks one live token revoked and reports whether this call
	// revoked it. replacedBy is the hash of the token issued in its place.
	Revoke(ctx context.Context, hash, replacedBy string, at time.Time) (bool, error)
	RevokeForUser(ctx context.Context, userID string, at time.Time) (int, error)
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// TokenService issues RS256 access tokens paired with single use refresh
// tokens
type TokenService struct {
	signer     *jwt.Service
	repo       TokenRepository
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService      *jwt.Service
	TokenRepo       TokenRepository
	RefreshDuration time.Duration
}

// NewTokenService creates a token service. RefreshDuration defaults to
// 30 days.
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	ttl := cfg.RefreshDuration
	if ttl <= 0 {
		ttl = DefaultRefreshDuration
	}
	return &TokenService{
		signer:     cfg.JWTService,
		repo:       cfg.TokenRepo,
		refreshTTL: ttl,
		now:        time.Now,
	}
}

// TokenPair is what a client keeps after signing in
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// Issue signs an access token for the user and stores a new refresh token
func (s *TokenService) Issue(ctx context.Context, user *model.User) (*TokenPair, error) {
	raw, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, raw)
}

// issue signs an access token and stores raw as the user's refresh token
func (s *TokenService) issue(ctx context.Context, user *model.User, raw string) (*TokenPair, error) {
	access, err := s.signer.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	now := s.now().UTC()
	stored := &model.RefreshToken{
		Hash:      hashToken(raw),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     raw,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.signer.GetExpiration().Seconds()),
		RefreshExpiresIn: int(s.refreshTTL.Seconds()),
	}, nil
}

// Owner returns the id of the user a live refresh token belongs to
func (s *TokenService) Owner(ctx context.Context, raw string) (string, error) {
	stored, err := s.find(ctx, raw)
	if err != nil {
		return "", err
	}
	return stored.UserID, nil
}

// Rotate exchanges a refresh token for a new pair. The successor is stored
// first, then the presented token is revoked pointing at it. Presenting a
// token that was already rotated, or losing a concurrent rotation of it,
// revokes every token of its user, successors included.
func (s *TokenService) Rotate(ctx context.Context, raw string, user *model.User) (*TokenPair, error) {
	stored, err := s.find(ctx, raw)
	if err != nil {
		return nil, err
	}
	if stored.UserID != user.ID {
		return nil, ErrInvalidRefreshToken
	}

	next, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	pair, err := s.issue(ctx, user, next)
	if err != nil {
		return nil, err
	}

	won, err := s.repo.Revoke(ctx, stored.Hash, hashToken(next), s.now().UTC())
	if err != nil {
		_, _ = s.repo.Revoke(context.WithoutCancel(ctx), hashToken(next), "", s.now().UTC())
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !won {
		if err := s.revokeFamily(ctx, stored.UserID); err != nil {
			return nil, err
		}
		return nil, ErrRefreshTokenRevoked
	}
	return pair, nil
}

// revokeFamily answers a reused refresh token by revoking all of the
// user's tokens
func (s *TokenService) revokeFamily(ctx context.Context, userID string) error {
	n, err := s.repo.RevokeForUser(ctx, userID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	slog.WarnContext(ctx, "refresh token reused",
		slog.String("user_id", userID),
		slog.Int("revoked", n),
	)
	return nil
}

// find loads a refresh token and checks it is still usable
func (s *TokenService) find(ctx context.Context, raw string) (*model.RefreshToken, error) {
	if raw == "" {
		return nil, ErrInvalidRefreshToken
	}
	stored, err := s.repo.FindByHash(ctx, hashToken(raw))
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}

	now := s.now().UTC()
	if stored.Revoked {
		if stored.Rotated() {
			if err := s.revokeFamily(ctx, stored.UserID); err != nil {
				return nil, err
			}
		}
		return nil, ErrRefreshTokenRevoked
	}
	if stored.Expired(now) {
		return nil, ErrRefreshTokenExpired
	}
	return stored, nil
}

// ValidateAccessToken checks an access token and returns its claims
func (s *TokenService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.signer.Validate(token)
}

// RevokeAll revokes every refresh token of a user
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.repo.RevokeForUser(ctx, userID, s.now().UTC())
	return err
}

// CleanupExpired deletes refresh tokens past their expiry. Revoked tokens
// that are still within their lifetime stay so reuse can be detected.
func (s *TokenService) CleanupExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
