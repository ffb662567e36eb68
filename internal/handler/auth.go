package handler

import (
	"context"
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// AuthHandler serves password sign-in and the token lifecycle
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

var sessionLinks = map[string]string{
	"self":    "/v1/auth/me",
	"profile": "/v1/profile",
	"refresh": "/v1/auth/refresh",
}

// writeTokens sends a response carrying credentials, which must not be
// cached by the client or any proxy
func writeTokens(w http.ResponseWriter, status int, data any, links map[string]string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	WriteData(w, status, data, links)
}

// signIn decodes req and hands it to start, answering with a new session
func signIn[T any](w http.ResponseWriter, r *http.Request, status int, operation string, start func(context.Context, T) (*service.AuthResult, error)) {
	var req T
	if !decodeRequest(w, r, &req) {
		return
	}
	result, err := start(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, operation)
		return
	}
	writeTokens(w, status, result, sessionLinks)
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	signIn(w, r, http.StatusCreated, "register", h.auth.Register)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	signIn(w, r, http.StatusOK, "login", h.auth.Login)
}

// Refresh handles POST /v1/auth/refresh. The presented token is spent.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	pair, err := h.auth.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err, "refresh tokens")
		return
	}
	writeTokens(w, http.StatusOK, pair, nil)
}

// Logout handles POST /v1/auth/logout, revoking every refresh token of the
// caller
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), userID); err != nil {
		writeServiceError(w, r, err, "logout")
		return
	}
	WriteNoContent(w)
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get user")
		return
	}
	WriteData(w, http.StatusOK, user, map[string]string{
		"self":    "/v1/auth/me",
		"profile": "/v1/profile",
		"wallet":  "/v1/wallet",
	})
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.HandleFunc("POST /v1/auth/register", h.Register)
	mux.HandleFunc("POST /v1/auth/login", h.Login)
	mux.HandleFunc("POST /v1/auth/refresh", h.Refresh)
	mux.Handle("POST /v1/auth/logout", auth(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /v1/auth/me", auth(http.HandlerFunc(h.Me)))
}
