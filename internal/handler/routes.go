package handler

import (
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	Profile    *ProfileHandler
	Onboarding *OnboardingHandler
	Karmic     *KarmicHandler
	Assessment *AssessmentHandler
	Wellness   *WellnessHandler
	Numerology *NumerologyHandler
	Wallet     *WalletHandler
	Chat       *ChatHandler
}

// NewRouter registers all routes on a fresh mux. auth guards the routes
// that need a signed-in user.
func NewRouter(h Handlers, auth middleware.Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	if h.Health != nil {
		h.Health.RegisterRoutes(mux)
	}
	h.Auth.RegisterRoutes(mux, auth)
	h.Profile.RegisterRoutes(mux, auth)
	h.Onboarding.RegisterRoutes(mux, auth)
	h.Karmic.RegisterRoutes(mux, auth)
	h.Assessment.RegisterRoutes(mux, auth)
	h.Wellness.RegisterRoutes(mux, auth)
	h.Numerology.RegisterRoutes(mux, auth)
	h.Wallet.RegisterRoutes(mux, auth)
	h.Chat.RegisterRoutes(mux, auth)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewNotFoundError("route "+r.URL.Path))
	})

	return mux
}
