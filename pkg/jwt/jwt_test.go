package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// newFrozenService signs and validates at testNow
func newFrozenService(t *testing.T, key *rsa.PrivateKey) *Service {
	t.Helper()
	svc := NewTestService(key, "test-issuer", 15*time.Minute)
	svc.now = func() time.Time { return testNow }
	return svc
}

// ============================================================================
// Sign
// ============================================================================

func TestSign_FillsRegisteredClaims(t *testing.T) {
	t.Parallel()
	svc := newFrozenService(t, newTestKey(t))

	token, err := svc.Sign(Claims{UserID: "u1", Email: "seeker@example.com", Name: "Asha"})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "seeker@example.com", claims.Email)
	assert.Equal(t, "Asha", claims.Name)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IssuedAt.Time.Equal(testNow))
	assert.True(t, claims.ExpiresAt.Time.Equal(testNow.Add(15*time.Minute)))
}

func TestSign_KeepsExplicitExpiry(t *testing.T) {
	t.Parallel()
	svc := newFrozenService(t, newTestKey(t))

	claims := Claims{UserID: "u1"}
	claims.ExpiresAt = gojwt.NewNumericDate(testNow.Add(7 * 24 * time.Hour))
	token, err := svc.Sign(claims)
	require.NoError(t, err)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Time.Equal(testNow.Add(7*24*time.Hour)))
}

func TestSign_SetsKeyIDHeader(t *testing.T) {
	t.Parallel()
	svc := newFrozenService(t, newTestKey(t))

	token, err := svc.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)

	parsed, _, err := gojwt.NewParser().ParseUnverified(token, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, svc.KeyID(), parsed.Header["kid"])
	assert.Len(t, svc.KeyID(), 11)
}

func TestSign_WithoutPrivateKey(t *testing.T) {
	t.Parallel()

	svc, err := NewService(Config{Issuer: "test", ExpirationMins: 15})
	require.NoError(t, err)

	_, err = svc.Sign(Claims{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = svc.Validate("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

// ============================================================================
// Validate
// ============================================================================

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)
	svc := newFrozenService(t, key)

	valid, err := svc.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	expiredClaims := Claims{UserID: "u1"}
	expiredClaims.ExpiresAt = gojwt.NewNumericDate(testNow.Add(-time.Minute))
	expired, err := svc.Sign(expiredClaims)
	require.NoError(t, err)

	other := newFrozenService(t, newTestKey(t))
	foreign, err := other.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)

	otherIssuer := NewTestService(key, "issuer-b", time.Minute)
	otherIssuer.now = svc.now
	wrongIssuer, err := otherIssuer.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)

	hmacClaims := Claims{UserID: "u1"}
	hmacClaims.Issuer = "test-issuer"
	hmacClaims.ExpiresAt = gojwt.NewNumericDate(testNow.Add(time.Hour))
	hmac, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &hmacClaims).SignedString([]byte("shared"))
	require.NoError(t, err)

	noExpClaims := Claims{UserID: "u1"}
	noExpClaims.Issuer = "test-issuer"
	noExp, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, &noExpClaims).SignedString(key)
	require.NoError(t, err)

	tampered := parts[0] + "." +
		base64.RawURLEncoding.EncodeToString([]byte(`{"user_id":"intruder","iss":"test-issuer","exp":4102444800}`)) +
		"." + parts[2]

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidToken},
		{"malformed", "a.b.c.d", ErrInvalidToken},
		{"garbage", "!!!.???.***", ErrInvalidToken},
		{"expired", expired, ErrTokenExpired},
		{"other key", foreign, ErrInvalidSignature},
		{"tampered payload", tampered, ErrInvalidSignature},
		{"hmac", hmac, ErrInvalidSignature},
		{"wrong issuer", wrongIssuer, ErrInvalidToken},
		{"no expiry", noExp, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_AllowsClockSkewWithinLeeway(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)
	signer := newFrozenService(t, key)
	token, err := signer.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)

	verifier := NewTestService(key, "test-issuer", 15*time.Minute)

	verifier.now = func() time.Time { return testNow.Add(-10 * time.Second) }
	_, err = verifier.Validate(token)
	assert.NoError(t, err, "not-before within leeway")

	verifier.now = func() time.Time { return testNow.Add(15*time.Minute + 10*time.Second) }
	_, err = verifier.Validate(token)
	assert.NoError(t, err, "expiry within leeway")

	verifier.now = func() time.Time { return testNow.Add(-time.Minute) }
	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidate_Audience(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)

	withAudience := newFrozenService(t, key)
	withAudience.audience = "eternal-ai-api"
	without := newFrozenService(t, key)

	token, err := withAudience.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)
	bare, err := without.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)

	claims, err := withAudience.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, gojwt.ClaimStrings{"eternal-ai-api"}, claims.Audience)

	_, err = without.Validate(token)
	assert.NoError(t, err, "audience is only checked when configured")

	_, err = withAudience.Validate(bare)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_SubjectFillsUserID(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)
	svc := newFrozenService(t, key)

	claims := Claims{}
	claims.Subject = "firebase-uid"
	token, err := svc.Sign(claims)
	require.NoError(t, err)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", got.UserID)
}

// ============================================================================
// Keys
// ============================================================================

func TestGenerateKeyPair_SignWithPrivateValidateWithPublic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	privatePath, publicPath := filepath.Join(dir, "private.pem"), filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	info, err := os.Stat(privatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(privatePath)
	require.NoError(t, err)
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	assert.Equal(t, "PRIVATE KEY", block.Type)

	signer, err := NewService(Config{PrivateKeyPath: privatePath, Issuer: "test", Audience: "eternal-ai-api", ExpirationMins: 15})
	require.NoError(t, err)
	verifier, err := NewService(Config{PublicKeyPath: publicPath, Issuer: "test", Audience: "eternal-ai-api"})
	require.NoError(t, err)
	assert.Equal(t, signer.KeyID(), verifier.KeyID())

	token, err := signer.Sign(Claims{UserID: "u1"})
	require.NoError(t, err)
	_, err = verifier.Validate(token)
	assert.NoError(t, err)

	_, err = verifier.Sign(Claims{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewService_BadKeyFiles(t *testing.T) {
	t.Parallel()
	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a pem file"), 0o644))

	for _, cfg := range []Config{
		{PrivateKeyPath: "/nonexistent/private.pem"},
		{PublicKeyPath: "/nonexistent/public.pem"},
		{PrivateKeyPath: bad},
		{PublicKeyPath: bad},
	} {
		_, err := NewService(cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestGenerateKeyPair_InvalidPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Error(t, GenerateKeyPair("/nonexistent/dir/private.pem", filepath.Join(dir, "public.pem")))
	assert.Error(t, GenerateKeyPair(filepath.Join(dir, "private.pem"), "/nonexistent/dir/public.pem"))
}
