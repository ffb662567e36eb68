package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eternal-ai/api/internal/model"
)

const (
	bcryptCost = 12

	minPasswordLength = 8
	maxPasswordLength = 128
	maxEmailLength    = 254
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update applies fn to the stored user atomically. It returns
	// ErrUserNotFound when the user does not exist.
	Update(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error)
	// Upsert applies fn to the stored user, or to a fresh user with the
	// given id when none exists, atomically.
	Upsert(ctx context.Context, id string, fn func(u *model.User, exists bool) error) (*model.User, error)
}

// CredentialsRepository stores password hashes apart from profiles
type CredentialsRepository interface {
	Create(ctx context.Context, creds *model.Credentials) error
	GetByEmail(ctx context.Context, email string) (*model.Credentials, error)
}

// AuthService handles email and password accounts
type AuthService struct {
	users  UserRepository
	creds  CredentialsRepository
	tokens *TokenService
	now    func() time.Time
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo        UserRepository
	CredentialsRepo CredentialsRepository
	TokenService    *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:  cfg.UserRepo,
		creds:  cfg.CredentialsRepo,
		tokens: cfg.TokenService,
		now:    time.Now,
	}
}

// AuthResult is a signed in user with fresh tokens
type AuthResult struct {
	User      *model.User `json:"user"`
	TokenPair *TokenPair  `json:"tokens"`
}

// Register creates the credentials and the users document of a new
// account. Credentials go first so a half finished signup can still log
// in; Login recreates a missing profile.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up credentials: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		CreatedAt: now,
	}
	err = s.creds.Create(ctx, &model.Credentials{
		UserID:    user.ID,
		Email:     email,
		Hash:      string(hash),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.signIn(ctx, user)
}

// Login checks the password and records the day's activity
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	creds, err := s.creds.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("look up credentials: %w", err)
	}
	if creds == nil || !checkPassword(req.Password, creds.Hash) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user, err := s.users.Upsert(ctx, creds.UserID, func(u *model.User, exists bool) error {
		if !exists {
			u.Email = creds.Email
			u.CreatedAt = creds.CreatedAt
		}
		u.RecordLogin(now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	return s.signIn(ctx, user)
}

func (s *AuthService) signIn(ctx context.Context, user *model.User) (*AuthResult, error) {
	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RefreshTokens rotates a refresh token. The new access token carries the
// current profile of its owner.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.Owner(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.tokens.Rotate(ctx, refreshToken, user)
}

// Logout revokes every refresh token of the user
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// ValidateAccessToken validates an access token and returns the claims
func (s *AuthService) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &model.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcryptInput prehashes passwords longer than the 72 bytes bcrypt accepts
func bcryptInput(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// validatePassword counts characters, not bytes
func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return ErrPasswordRequired
	case n < minPasswordLength:
		return ErrPasswordTooShort
	case n > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail accepts a bare RFC 5322 address whose domain has a dot
func isValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return at > 0 && dot > 0 && dot < len(domain)-1
}
