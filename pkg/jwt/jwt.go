package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")

	errKeyMismatch = errors.New("token signed with another key")
)

// DefaultLeeway absorbs clock skew between signer and verifier
const DefaultLeeway = 30 * time.Second

// Claims are the access token claims. UserID mirrors the subject.
type Claims struct {
	gojwt.RegisteredClaims

	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Service signs and validates RS256 access tokens
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	issuer     string
	audience   string
	expiration time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// Config holds JWT service configuration. Audience is optional; when set
// it is stamped on signed tokens and required on validated ones.
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	Audience       string
	ExpirationMins int
}

// NewService loads the configured keys. The public key is derived from the
// private key when both are given; a public key alone yields a service
// that validates but cannot sign.
func NewService(cfg Config) (*Service, error) {
	var (
		priv *rsa.PrivateKey
		pub  *rsa.PublicKey
		err  error
	)
	if cfg.PrivateKeyPath != "" {
		if priv, err = readPEM(cfg.PrivateKeyPath, gojwt.ParseRSAPrivateKeyFromPEM); err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
		pub = &priv.PublicKey
	} else if cfg.PublicKeyPath != "" {
		if pub, err = readPEM(cfg.PublicKeyPath, gojwt.ParseRSAPublicKeyFromPEM); err != nil {
			return nil, fmt.Errorf("load public key: %w", err)
		}
	}

	s := newService(priv, pub, cfg.Issuer, time.Duration(cfg.ExpirationMins)*time.Minute)
	s.audience = cfg.Audience
	return s, nil
}

// NewTestService creates a service around an in-memory key
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return newService(privateKey, &privateKey.PublicKey, issuer, expiration)
}

func newService(priv *rsa.PrivateKey, pub *rsa.PublicKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: priv,
		publicKey:  pub,
		keyID:      thumbprint(pub),
		issuer:     issuer,
		expiration: expiration,
		leeway:     DefaultLeeway,
		now:        time.Now,
	}
}

// GenerateKeyPair writes a fresh 2048 bit key pair as PKCS#8 and PKIX PEM
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}

	if err := writePEM(privateKeyPath, "PRIVATE KEY", privDER, 0o600); err != nil {
		return err
	}
	return writePEM(publicKeyPath, "PUBLIC KEY", pubDER, 0o644)
}

// KeyID is the kid header placed on signed tokens
func (s *Service) KeyID() string {
	return s.keyID
}

// Sign creates a signed RS256 token. Issuer, audience, issued-at,
// not-before, the token id and the subject are filled in; ExpiresAt
// defaults to the configured lifetime.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := s.now().Truncate(time.Second)
	claims.Issuer = s.issuer
	if s.audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.audience}
	}
	claims.IssuedAt = gojwt.NewNumericDate(now)
	claims.NotBefore = gojwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, &claims)
	token.Header["kid"] = s.keyID
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token and returns its claims. Tokens must carry an
// expiry. A kid header naming another key fails as a bad signature.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithIssuer(s.issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(s.leeway),
		gojwt.WithTimeFunc(s.now),
	}
	if s.audience != "" {
		opts = append(opts, gojwt.WithAudience(s.audience))
	}

	var claims Claims
	_, err := gojwt.ParseWithClaims(tokenString, &claims, s.key, opts...)
	switch {
	case err == nil:
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, gojwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid), errors.Is(err, errKeyMismatch):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return &claims, nil
}

func (s *Service) key(t *gojwt.Token) (any, error) {
	if kid, ok := t.Header["kid"].(string); ok && kid != s.keyID {
		return nil, errKeyMismatch
	}
	return s.publicKey, nil
}

// GetExpiration returns the access token lifetime
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

// thumbprint is the first 8 bytes of the SHA-256 of the PKIX public key,
// base64url encoded
func thumbprint(pub *rsa.PublicKey) string {
	if pub == nil {
		return ""
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

func readPEM[K any](path string, parse func([]byte) (K, error)) (K, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		var zero K
		return zero, err
	}
	return parse(data)
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", blockType, err)
	}
	return nil
}
