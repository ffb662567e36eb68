package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// WalletHandler handles ether balance, purchases and report unlocks
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

var walletLinks = map[string]string{
	"self":   "/v1/wallet",
	"buy":    "/v1/wallet/ethers",
	"unlock": "/v1/wallet/unlock",
}

// Get handles GET /v1/wallet
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	wallet, err := h.walletService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get wallet")
		return
	}

	WriteData(w, http.StatusOK, wallet, walletLinks)
}

// Purchase handles POST /v1/wallet/ethers
func (h *WalletHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.PurchaseRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if errs := req.Validate(h.walletService.MaxPurchase()); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	wallet, err := h.walletService.Purchase(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "purchase ethers")
		return
	}

	WriteData(w, http.StatusOK, wallet, walletLinks)
}

// Unlock handles POST /v1/wallet/unlock
func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UnlockRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.walletService.Unlock(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "unlock reports")
		return
	}

	WriteData(w, http.StatusOK, result, walletLinks)
}

// RegisterRoutes registers wallet routes, all behind auth
func (h *WalletHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("GET /v1/wallet", auth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/wallet/ethers", auth(http.HandlerFunc(h.Purchase)))
	mux.Handle("POST /v1/wallet/unlock", auth(http.HandlerFunc(h.Unlock)))
}
