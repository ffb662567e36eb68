package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// KarmicHandler handles the two karmic report steps and the karmic chat
type KarmicHandler struct {
	karmicService *service.KarmicService
	chatService   *service.KarmicChatService
}

// NewKarmicHandler creates a new karmic handler
func NewKarmicHandler(karmicService *service.KarmicService, chatService *service.KarmicChatService) *KarmicHandler {
	return &KarmicHandler{
		karmicService: karmicService,
		chatService:   chatService,
	}
}

var karmicLinks = map[string]string{
	"self": "/v1/reports/karmic",
	"chat": "/v1/reports/karmic/chat",
}

// SubmitBirthPlace handles POST /v1/reports/karmic/birth
func (h *KarmicHandler) SubmitBirthPlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.KarmicBirthRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	onboarding, err := h.karmicService.SubmitBirthPlace(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "submit birth place")
		return
	}

	WriteData(w, http.StatusOK, onboarding, map[string]string{
		"next": "/v1/reports/karmic",
	})
}

// Generate handles POST /v1/reports/karmic
func (h *KarmicHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.KarmicReportRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	report, err := h.karmicService.Generate(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "generate karmic report")
		return
	}

	WriteData(w, http.StatusCreated, report, karmicLinks)
}

// Get handles GET /v1/reports/karmic
func (h *KarmicHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.karmicService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get karmic report")
		return
	}

	WriteData(w, http.StatusOK, report, karmicLinks)
}

// Chat handles GET /v1/reports/karmic/chat
func (h *KarmicHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get karmic chat")
		return
	}

	WriteData(w, http.StatusOK, chat, karmicLinks)
}

// Ask handles POST /v1/reports/karmic/chat
func (h *KarmicHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.KarmicQuestionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	chat, err := h.chatService.Ask(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "ask karmic question")
		return
	}

	WriteData(w, http.StatusOK, chat, karmicLinks)
}

// RegisterRoutes registers karmic routes, all behind auth
func (h *KarmicHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/reports/karmic/birth", auth(http.HandlerFunc(h.SubmitBirthPlace)))
	mux.Handle("POST /v1/reports/karmic", auth(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /v1/reports/karmic", auth(http.HandlerFunc(h.Get)))
	mux.Handle("GET /v1/reports/karmic/chat", auth(http.HandlerFunc(h.Chat)))
	mux.Handle("POST /v1/reports/karmic/chat", auth(http.HandlerFunc(h.Ask)))
}
