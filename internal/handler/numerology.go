package handler

import (
	"net/http"
	"strings"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// NumerologyHandler handles the numerology report flow
type NumerologyHandler struct {
	numerologyService *service.NumerologyService
}

// NewNumerologyHandler creates a new numerology handler
func NewNumerologyHandler(numerologyService *service.NumerologyService) *NumerologyHandler {
	return &NumerologyHandler{numerologyService: numerologyService}
}

var numerologyLinks = map[string]string{
	"self":      "/v1/reports/numerology",
	"questions": "/v1/reports/numerology/questions",
	"chart":     "/v1/reports/numerology/chart",
}

// Questions handles GET /v1/reports/numerology/questions
func (h *NumerologyHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions := h.numerologyService.Questions()
	WriteCollection(w, http.StatusOK, questions, len(questions), numerologyLinks)
}

// Generate handles POST /v1/reports/numerology
func (h *NumerologyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.NumerologyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	report, err := h.numerologyService.Generate(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "generate numerology report")
		return
	}

	WriteData(w, http.StatusCreated, report, numerologyLinks)
}

// List handles GET /v1/reports/numerology
func (h *NumerologyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	reports, err := h.numerologyService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list numerology reports")
		return
	}

	WriteCollection(w, http.StatusOK, reports, len(reports), numerologyLinks)
}

// Chart handles POST /v1/reports/numerology/chart. Clients accepting
// image/svg+xml get the raw image, others get it wrapped in JSON.
func (h *NumerologyHandler) Chart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.BirthChartRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	svg, err := h.numerologyService.Chart(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "render birth chart")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "image/svg+xml") {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(svg))
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"svg": svg}, nil)
}

// RegisterRoutes registers numerology routes. The question list is public.
func (h *NumerologyHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.HandleFunc("GET /v1/reports/numerology/questions", h.Questions)
	mux.Handle("POST /v1/reports/numerology", auth(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /v1/reports/numerology", auth(http.HandlerFunc(h.List)))
	mux.Handle("POST /v1/reports/numerology/chart", auth(http.HandlerFunc(h.Chart)))
}
