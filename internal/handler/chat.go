package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// ChatHandler handles the report chat, the paid daily chat, the onboarding
// guide and the raw LLM proxy
type ChatHandler struct {
	chatService  *service.ChatService
	proxyService *service.ProxyService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, proxyService *service.ProxyService) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		proxyService: proxyService,
	}
}

// Reports handles POST /v1/chat/reports
func (h *ChatHandler) Reports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChatRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	reply, err := h.chatService.ReportsChat(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "reports chat")
		return
	}

	WriteData(w, http.StatusOK, reply, nil)
}

// Daily handles POST /v1/chat/daily
func (h *ChatHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChatRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	reply, err := h.chatService.DailyChat(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "daily chat")
		return
	}

	WriteData(w, http.StatusOK, reply, map[string]string{"wallet": "/v1/wallet"})
}

// Guide handles POST /v1/chat
func (h *ChatHandler) Guide(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req model.GuideChatRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	reply, err := h.chatService.GuideChat(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "guide chat")
		return
	}

	WriteData(w, http.StatusOK, reply, map[string]string{"answers": "/v1/chats/answers"})
}

// Proxy handles POST /v1/llm/chat. The upstream status and body are
// relayed unchanged.
func (h *ChatHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req model.LLMProxyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.proxyService.Relay(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "llm proxy")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.Status)
	_, _ = w.Write(result.Body)
}

// RegisterRoutes registers chat routes, all behind auth
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/chat/reports", auth(http.HandlerFunc(h.Reports)))
	mux.Handle("POST /v1/chat/daily", auth(http.HandlerFunc(h.Daily)))
	mux.Handle("POST /v1/chat", auth(http.HandlerFunc(h.Guide)))
	mux.Handle("POST /v1/llm/chat", auth(http.HandlerFunc(h.Proxy)))
}
