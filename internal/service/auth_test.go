package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// Mock implementations
// ============================================================================

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	createErr error
	getErr    error
	updateErr error
}

func newMockUserRepo(users ...*model.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.users[id] = &cp
	out := cp
	return &out, nil
}

func (m *mockUserRepo) Upsert(ctx context.Context, id string, fn func(u *model.User, exists bool) error) (*model.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var cp model.User
	u, exists := m.users[id]
	if exists {
		cp = *u
	} else {
		cp = model.User{ID: id}
	}
	if err := fn(&cp, exists); err != nil {
		return nil, err
	}
	m.users[id] = &cp
	out := cp
	return &out, nil
}

func (m *mockUserRepo) get(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type mockCredentialsRepo struct {
	creds     map[string]*model.Credentials
	createErr error
}

func newMockCredentialsRepo() *mockCredentialsRepo {
	return &mockCredentialsRepo{creds: make(map[string]*model.Credentials)}
}

func (m *mockCredentialsRepo) Create(ctx context.Context, creds *model.Credentials) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.creds[creds.Email] = creds
	return nil
}

func (m *mockCredentialsRepo) GetByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	return m.creds[email], nil
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *mockCredentialsRepo, *memoryTokenRepo) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	users := newMockUserRepo()
	creds := newMockCredentialsRepo()
	tokens := newMemoryTokenRepo()
	svc := NewAuthService(AuthServiceConfig{
		UserRepo:        users,
		CredentialsRepo: creds,
		TokenService: NewTokenService(TokenServiceConfig{
			JWTService: jwt.NewTestService(key, "test", 15*time.Minute),
			TokenRepo:  tokens,
		}),
	})
	return svc, users, creds, tokens
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_CreatesUserAndCredentials(t *testing.T) {
	t.Parallel()
	svc, users, creds, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "  Seeker@Example.com ",
		Password: "correct-horse",
		FullName: " Asha Rao ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.User.Email != "seeker@example.com" {
		t.Errorf("email not normalized: %q", result.User.Email)
	}
	if result.User.FullName != "Asha Rao" {
		t.Errorf("full name not trimmed: %q", result.User.FullName)
	}
	if result.TokenPair == nil || result.TokenPair.AccessToken == "" {
		t.Error("expected tokens")
	}
	if users.get(result.User.ID) == nil {
		t.Error("user profile was not stored")
	}
	stored := creds.creds["seeker@example.com"]
	if stored == nil {
		t.Fatal("credentials were not stored")
	}
	if stored.UserID != result.User.ID {
		t.Errorf("credentials point at %q, want %q", stored.UserID, result.User.ID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	req := model.RegisterRequest{Email: "dup@example.com", Password: "password123"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(ctx, req)
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)

	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"bad email", model.RegisterRequest{Email: "nope", Password: "password123"}, ErrInvalidEmail},
		{"missing password", model.RegisterRequest{Email: "a@example.com"}, ErrPasswordRequired},
		{"short password", model.RegisterRequest{Email: "a@example.com", Password: "short"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_RecordsActivity(t *testing.T) {
	t.Parallel()
	svc, users, _, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{Email: "login@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }

	result, err := svc.Login(ctx, model.LoginRequest{Email: "LOGIN@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Errorf("logged in as %q, want %q", result.User.ID, reg.User.ID)
	}
	stored := users.get(reg.User.ID)
	if stored.DaysActive != 1 || stored.Streak != 1 {
		t.Errorf("expected first login counted, got days=%d streak=%d", stored.DaysActive, stored.Streak)
	}

	// Same day does not count twice
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "login@example.com", Password: "password123"}); err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if got := users.get(reg.User.ID).DaysActive; got != 1 {
		t.Errorf("expected daysActive 1 after same-day login, got %d", got)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "a@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Login(ctx, model.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_RecreatesMissingProfile(t *testing.T) {
	t.Parallel()
	svc, users, creds, _ := newTestAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	creds.creds["orphan@example.com"] = &model.Credentials{UserID: "u-orphan", Email: "orphan@example.com", Hash: string(hash)}

	result, err := svc.Login(context.Background(), model.LoginRequest{Email: "orphan@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User.Email != "orphan@example.com" {
		t.Errorf("expected email from credentials, got %q", result.User.Email)
	}
	if users.get("u-orphan") == nil {
		t.Error("expected profile to be created")
	}
}

// ============================================================================
// Refresh and Logout Tests
// ============================================================================

func TestRefreshTokens_RotatesToken(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{Email: "r@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pair, err := svc.RefreshTokens(ctx, reg.TokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken == reg.TokenPair.RefreshToken {
		t.Error("expected a new refresh token")
	}

	_, err = svc.RefreshTokens(ctx, reg.TokenPair.RefreshToken)
	if !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected reuse to fail with ErrRefreshTokenRevoked, got %v", err)
	}
}

func TestRefreshTokens_UnknownToken(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.RefreshTokens(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestLogout_RevokesTokens(t *testing.T) {
	t.Parallel()
	svc, _, _, tokens := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{Email: "out@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.Logout(ctx, reg.User.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	for _, tok := range tokens.all() {
		if !tok.Revoked || tok.RevokedAt == nil {
			t.Error("expected all tokens revoked")
		}
	}
}

func TestValidateAccessToken_ReturnsClaims(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "claims@example.com", Password: "password123", FullName: "Ravi",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(reg.TokenPair.AccessToken)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Email != "claims@example.com" || claims.Name != "Ravi" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("a", maxPasswordLength+1)

	tests := []struct {
		password string
		want     error
	}{
		{"", ErrPasswordRequired},
		{"1234567", ErrPasswordTooShort},
		{"12345678", nil},
		{long, ErrPasswordTooLong},
		{strings.Repeat("ॐ", maxPasswordLength), nil},
	}
	for _, tt := range tests {
		if got := validatePassword(tt.password); got != tt.want {
			t.Errorf("validatePassword(len %d) = %v, want %v", len(tt.password), got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	t.Parallel()
	tests := map[string]bool{
		"user@example.com":  true,
		"a.b@sub.domain.io": true,
		"":                  false,
		"@example.com":      false,
		"user@":             false,
		"user@example":      false,
		"user@example.":     false,
		"user@.com":         false,
		"Name <a@b.io>":     false,
	}
	for email, want := range tests {
		if got := isValidEmail(email); got != want {
			t.Errorf("isValidEmail(%q) = %v, want %v", email, got, want)
		}
	}
}

func TestRegisterAndLogin_PasswordLongerThanBcryptLimit(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()
	password := strings.Repeat("moonrise-", 12)

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "long@example.com", Password: password}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "long@example.com", Password: password}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	_, err := svc.Login(ctx, model.LoginRequest{Email: "long@example.com", Password: password[:72]})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for truncated password, got %v", err)
	}
}
