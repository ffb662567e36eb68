package helpers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/pkg/jwt"
)

// TestIssuer is the issuer of tokens signed by JWTHelper
const TestIssuer = "eternal-ai-test"

// ============================================================================
// Tokens
// ============================================================================

// JWTHelper signs access tokens with the service the router validates them
// with. The key is generated per test.
type JWTHelper struct {
	Service *jwt.Service
	t       *testing.T
}

func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "generate signing key")
	return &JWTHelper{Service: jwt.NewTestService(key, TestIssuer, 15*time.Minute), t: t}
}

// GenerateToken signs a live access token for user
func (h *JWTHelper) GenerateToken(user *model.User) string {
	h.t.Helper()
	return h.sign(jwt.Claims{UserID: user.ID, Email: user.Email, Name: user.FullName})
}

// GenerateExpiredToken signs a token for user that lapsed an hour ago,
// well past the validation leeway
func (h *JWTHelper) GenerateExpiredToken(user *model.User) string {
	h.t.Helper()
	claims := jwt.Claims{UserID: user.ID, Email: user.Email}
	claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Hour))
	return h.sign(claims)
}

func (h *JWTHelper) sign(claims jwt.Claims) string {
	h.t.Helper()
	token, err := h.Service.Sign(claims)
	require.NoError(h.t, err, "sign token")
	return token
}

// ============================================================================
// Requests
// ============================================================================

// RequestBuilder assembles a request against the router. Bodies are JSON
// encoded unless set raw.
type RequestBuilder struct {
	t      *testing.T
	method string
	path   string
	body   io.Reader
	header http.Header
	auth   func() string
}

func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{t: t, method: method, path: path, header: http.Header{}}
}

func (rb *RequestBuilder) WithBody(body any) *RequestBuilder {
	rb.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(rb.t, err, "encode request body")
	rb.body = bytes.NewReader(raw)
	return rb
}

// WithRawBody sends body as is, for payloads JSON encoding cannot produce
func (rb *RequestBuilder) WithRawBody(body string) *RequestBuilder {
	rb.body = bytes.NewReader([]byte(body))
	return rb
}

func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.header.Set(key, value)
	return rb
}

// WithAuth signs a bearer token for user when the request is built
func (rb *RequestBuilder) WithAuth(signer *JWTHelper, user *model.User) *RequestBuilder {
	rb.auth = func() string { return signer.GenerateToken(user) }
	return rb
}

func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	req := httptest.NewRequest(rb.method, rb.path, rb.body)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rb.auth != nil {
		req.Header.Set("Authorization", "Bearer "+rb.auth())
	}
	for k, v := range rb.header {
		req.Header[k] = v
	}
	return req
}

// Do serves the built request with h and returns the recording
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, rb.Build())
	return rec
}

// ============================================================================
// Responses
// ============================================================================

func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rec.Code, "status; body: %s", rec.Body.String())
}

// AssertProblemDetails checks an application/problem+json response and
// returns it decoded. A zero code skips the code check.
func AssertProblemDetails(t *testing.T, rec *httptest.ResponseRecorder, status int, code model.ErrorCode) *model.ProblemDetails {
	t.Helper()

	AssertStatus(t, rec, status)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem model.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), "decode problem: %s", rec.Body.String())
	assert.Equal(t, status, problem.Status, "problem status")
	if code != 0 {
		assert.Equal(t, code, problem.Code, "problem code")
	}
	return &problem
}

// AssertValidationError expects a 422 naming field among its errors
func AssertValidationError(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()

	problem := AssertProblemDetails(t, rec, http.StatusUnprocessableEntity, model.ErrCodeValidation)
	fields := make([]string, 0, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, field)
}

// DecodeData decodes the "data" member of the response envelope into v
func DecodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), "decode envelope: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, v), "decode data: %s", rec.Body.String())
}

// GetDataFromResponse returns the "data" object as a generic map
func GetDataFromResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var data map[string]any
	DecodeData(t, rec, &data)
	return data
}

func StringPtr(s string) *string { return &s }
