package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// WellnessHandler handles the wellness and soul reports and the results
// summary
type WellnessHandler struct {
	wellnessService *service.WellnessService
}

// NewWellnessHandler creates a new wellness handler
func NewWellnessHandler(wellnessService *service.WellnessService) *WellnessHandler {
	return &WellnessHandler{wellnessService: wellnessService}
}

// GenerateWellness handles POST /v1/reports/wellness
func (h *WellnessHandler) GenerateWellness(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.WellnessRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.wellnessService.GenerateWellness(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "generate wellness report")
		return
	}

	WriteData(w, http.StatusCreated, result, reportLinks("/v1/reports/results"))
}

// GenerateSoul handles POST /v1/reports/soul. The report is built from
// stored answers so the body is ignored.
func (h *WellnessHandler) GenerateSoul(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.wellnessService.GenerateSoul(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "generate soul report")
		return
	}

	WriteData(w, http.StatusCreated, report, reportLinks("/v1/reports/results"))
}

// Results handles GET /v1/reports/results
func (h *WellnessHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	results, err := h.wellnessService.Results(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get results")
		return
	}

	WriteData(w, http.StatusOK, results, map[string]string{
		"self":     "/v1/reports/results",
		"wellness": "/v1/reports/wellness",
		"soul":     "/v1/reports/soul",
	})
}

// RegisterRoutes registers wellness routes, all behind auth
func (h *WellnessHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/reports/wellness", auth(http.HandlerFunc(h.GenerateWellness)))
	mux.Handle("POST /v1/reports/soul", auth(http.HandlerFunc(h.GenerateSoul)))
	mux.Handle("GET /v1/reports/results", auth(http.HandlerFunc(h.Results)))
}
