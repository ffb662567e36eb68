package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// AssessmentHandler handles the aura, vibrational and face/palm reports
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	facePalmService   *service.FacePalmService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentService *service.AssessmentService, facePalmService *service.FacePalmService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		facePalmService:   facePalmService,
	}
}

func reportLinks(self string) map[string]string {
	return map[string]string{
		"self":    self,
		"results": "/v1/reports/results",
		"chat":    "/v1/chat/reports",
	}
}

// GenerateAura handles POST /v1/reports/aura
func (h *AssessmentHandler) GenerateAura(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.AnswersRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	report, err := h.assessmentService.GenerateAura(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "generate aura report")
		return
	}

	WriteData(w, http.StatusCreated, report, reportLinks("/v1/reports/aura"))
}

// GetAura handles GET /v1/reports/aura
func (h *AssessmentHandler) GetAura(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.assessmentService.GetAura(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get aura report")
		return
	}

	WriteData(w, http.StatusOK, report, reportLinks("/v1/reports/aura"))
}

// GenerateVibrational handles POST /v1/reports/vibrational
func (h *AssessmentHandler) GenerateVibrational(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.AnswersRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	report, err := h.assessmentService.GenerateVibrational(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "generate vibrational report")
		return
	}

	WriteData(w, http.StatusCreated, report, reportLinks("/v1/reports/vibrational"))
}

// GetVibrational handles GET /v1/reports/vibrational
func (h *AssessmentHandler) GetVibrational(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.assessmentService.GetVibrational(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get vibrational report")
		return
	}

	WriteData(w, http.StatusOK, report, reportLinks("/v1/reports/vibrational"))
}

// ValidatePalm handles POST /v1/reports/palm/validate
func (h *AssessmentHandler) ValidatePalm(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req model.PalmValidateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.facePalmService.ValidatePalm(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "validate palm image")
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// AnalyzeFacePalm handles POST /v1/reports/face-palm
func (h *AssessmentHandler) AnalyzeFacePalm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.FacePalmRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	reading, err := h.facePalmService.Analyze(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "analyze face and palm")
		return
	}

	WriteData(w, http.StatusCreated, reading, reportLinks("/v1/reports/face-palm"))
}

// GetFacePalm handles GET /v1/reports/face-palm
func (h *AssessmentHandler) GetFacePalm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	reading, err := h.facePalmService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get face reading")
		return
	}

	WriteData(w, http.StatusOK, reading, reportLinks("/v1/reports/face-palm"))
}

// RegisterRoutes registers assessment routes, all behind auth
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/reports/aura", auth(http.HandlerFunc(h.GenerateAura)))
	mux.Handle("GET /v1/reports/aura", auth(http.HandlerFunc(h.GetAura)))
	mux.Handle("POST /v1/reports/vibrational", auth(http.HandlerFunc(h.GenerateVibrational)))
	mux.Handle("GET /v1/reports/vibrational", auth(http.HandlerFunc(h.GetVibrational)))
	mux.Handle("POST /v1/reports/palm/validate", auth(http.HandlerFunc(h.ValidatePalm)))
	mux.Handle("POST /v1/reports/face-palm", auth(http.HandlerFunc(h.AnalyzeFacePalm)))
	mux.Handle("GET /v1/reports/face-palm", auth(http.HandlerFunc(h.GetFacePalm)))
}
