package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// OnboardingHandler handles the onboarding flow and guide chat answers
type OnboardingHandler struct {
	onboardingService *service.OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboardingService *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

var onboardingLinks = map[string]string{
	"self": "/v1/onboarding",
	"qa":   "/v1/onboarding/qa",
}

// SetSoulPath handles POST /v1/onboarding/path
func (h *OnboardingHandler) SetSoulPath(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SoulPathRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	o, err := h.onboardingService.SetSoulPath(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "set soul path")
		return
	}

	WriteData(w, http.StatusOK, o, onboardingLinks)
}

// SaveAnswer handles POST /v1/onboarding/answers
func (h *OnboardingHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.OnboardingAnswerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	o, err := h.onboardingService.SaveAnswer(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "save onboarding answer")
		return
	}

	WriteData(w, http.StatusOK, o, onboardingLinks)
}

// Get handles GET /v1/onboarding
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	o, err := h.onboardingService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get onboarding")
		return
	}

	WriteData(w, http.StatusOK, o, onboardingLinks)
}

// AppendQA handles POST /v1/onboarding/qa
func (h *OnboardingHandler) AppendQA(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.QAPairRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	qa, err := h.onboardingService.AppendQA(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "append soul path answer")
		return
	}

	WriteData(w, http.StatusOK, qa, map[string]string{
		"self": "/v1/onboarding/qa",
		"soul": "/v1/reports/soul",
	})
}

// QA handles GET /v1/onboarding/qa
func (h *OnboardingHandler) QA(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	qa, err := h.onboardingService.QA(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get soul path answers")
		return
	}

	WriteData(w, http.StatusOK, qa, map[string]string{"self": "/v1/onboarding/qa"})
}

// AddChatAnswer handles POST /v1/chats/answers
func (h *OnboardingHandler) AddChatAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChatAnswerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	answer, err := h.onboardingService.AddChatAnswer(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "store chat answer")
		return
	}

	WriteData(w, http.StatusCreated, answer, map[string]string{"collection": "/v1/chats/answers"})
}

// ChatAnswers handles GET /v1/chats/answers
func (h *OnboardingHandler) ChatAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	answers, err := h.onboardingService.ChatAnswers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list chat answers")
		return
	}

	WriteCollection(w, http.StatusOK, answers, len(answers), map[string]string{"self": "/v1/chats/answers"})
}

// RegisterRoutes registers onboarding routes, all behind auth
func (h *OnboardingHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/onboarding/path", auth(http.HandlerFunc(h.SetSoulPath)))
	mux.Handle("POST /v1/onboarding/answers", auth(http.HandlerFunc(h.SaveAnswer)))
	mux.Handle("GET /v1/onboarding", auth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/onboarding/qa", auth(http.HandlerFunc(h.AppendQA)))
	mux.Handle("GET /v1/onboarding/qa", auth(http.HandlerFunc(h.QA)))
	mux.Handle("POST /v1/chats/answers", auth(http.HandlerFunc(h.AddChatAnswer)))
	mux.Handle("GET /v1/chats/answers", auth(http.HandlerFunc(h.ChatAnswers)))
}
