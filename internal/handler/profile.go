package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

var profileLinks = map[string]string{
	"self":  "/v1/profile",
	"soul":  "/v1/profile/soul",
	"stats": "/v1/profile/stats",
}

// Signup handles POST /v1/profile/signup. Clients signed in with an ID
// token record their email and name here; the email of the token is used
// when the body has none.
func (h *ProfileHandler) Signup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SignupRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Email == "" {
		req.Email = middleware.GetUserEmail(r.Context())
	}

	user, err := h.profileService.Signup(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "signup")
		return
	}

	WriteData(w, http.StatusCreated, user, profileLinks)
}

// Get handles GET /v1/profile - get own profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get profile")
		return
	}

	WriteData(w, http.StatusOK, user, profileLinks)
}

// Update handles PATCH /v1/profile - update own profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.profileService.Update(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "update profile")
		return
	}

	WriteData(w, http.StatusOK, user, profileLinks)
}

// SaveSoul handles POST /v1/profile/soul
func (h *ProfileHandler) SaveSoul(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SoulAnswersRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	answers, err := h.profileService.SaveSoulAnswers(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "save soul answers")
		return
	}

	WriteData(w, http.StatusOK, answers, map[string]string{"self": "/v1/profile/soul"})
}

// GetSoul handles GET /v1/profile/soul
func (h *ProfileHandler) GetSoul(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	answers, err := h.profileService.GetSoulAnswers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get soul answers")
		return
	}

	WriteData(w, http.StatusOK, answers, map[string]string{"self": "/v1/profile/soul"})
}

// Stats handles GET /v1/profile/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.profileService.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get stats")
		return
	}

	WriteData(w, http.StatusOK, stats, map[string]string{
		"self":   "/v1/profile/stats",
		"wallet": "/v1/wallet",
	})
}

// RecordLogin handles POST /v1/profile/login
func (h *ProfileHandler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.profileService.RecordLogin(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "record login")
		return
	}

	WriteData(w, http.StatusOK, stats, map[string]string{"stats": "/v1/profile/stats"})
}

// RegisterRoutes registers profile routes, all behind auth
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/profile/signup", auth(http.HandlerFunc(h.Signup)))
	mux.Handle("GET /v1/profile", auth(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /v1/profile", auth(http.HandlerFunc(h.Update)))
	mux.Handle("POST /v1/profile/soul", auth(http.HandlerFunc(h.SaveSoul)))
	mux.Handle("GET /v1/profile/soul", auth(http.HandlerFunc(h.GetSoul)))
	mux.Handle("GET /v1/profile/stats", auth(http.HandlerFunc(h.Stats)))
	mux.Handle("POST /v1/profile/login", auth(http.HandlerFunc(h.RecordLogin)))
}
