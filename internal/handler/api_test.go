package handler

import (
	"net/http"
	"testing"

	"go.uber.org/goleak"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/repository"
	"github.com/eternal-ai/api/internal/service"
	"github.com/eternal-ai/api/internal/testing/fixtures"
	"github.com/eternal-ai/api/internal/testing/helpers"
	"github.com/eternal-ai/api/internal/testing/testdb"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Test API
// ============================================================================

// testAPI is the full router backed by real services over a SQLite store
// and fake upstream providers
type testAPI struct {
	router  http.Handler
	tdb     *testdb.TestDB
	factory *fixtures.Factory
	jwt     *helpers.JWTHelper

	llm        *fixtures.FakeLLM
	geocoder   *fixtures.FakeGeocoder
	astrology  *fixtures.FakeAstrology
	numerology *fixtures.FakeNumerology
	blobs      *fixtures.FakeBlobStore
	proxy      *fixtures.FakeChatProxy
}

type apiOption func(*testAPI)

func withLLM(llm *fixtures.FakeLLM) apiOption {
	return func(a *testAPI) { a.llm = llm }
}

func withProxy(p *fixtures.FakeChatProxy) apiOption {
	return func(a *testAPI) { a.proxy = p }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	tdb := testdb.New(t)
	a := &testAPI{
		tdb:        tdb,
		factory:    fixtures.New(tdb.Store),
		jwt:        helpers.NewJWTHelper(t),
		llm:        fixtures.NewFakeLLM("The stars are with you."),
		geocoder:   &fixtures.FakeGeocoder{},
		astrology:  &fixtures.FakeAstrology{},
		numerology: &fixtures.FakeNumerology{},
		blobs:      &fixtures.FakeBlobStore{},
		proxy:      &fixtures.FakeChatProxy{},
	}
	for _, opt := range opts {
		opt(a)
	}

	store := tdb.Store
	users := repository.NewUserRepository(store)
	onboardingRepo := repository.NewOnboardingRepository(store)
	answers := repository.NewChatAnswerRepository(store)
	reports := repository.NewReportRepository(store)
	karmicRepo := repository.NewKarmicRepository(store)

	tokens := service.NewTokenService(service.TokenServiceConfig{
		JWTService: a.jwt.Service,
		TokenRepo:  repository.NewTokenRepository(store),
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:        users,
		CredentialsRepo: repository.NewCredentialsRepository(store),
		TokenService:    tokens,
	})
	profileService := service.NewProfileService(service.ProfileServiceConfig{
		UserRepo:       users,
		OnboardingRepo: onboardingRepo,
		Blobs:          a.blobs,
	})
	wallet := service.NewWalletService(service.WalletServiceConfig{UserRepo: users})

	handlers := Handlers{
		Health:  NewHealthHandler(store, map[string]bool{"llm": true, "numerology": false}),
		Auth:    NewAuthHandler(authService),
		Profile: NewProfileHandler(profileService),
		Onboarding: NewOnboardingHandler(service.NewOnboardingService(service.OnboardingServiceConfig{
			OnboardingRepo: onboardingRepo,
			AnswerRepo:     answers,
		})),
		Karmic: NewKarmicHandler(
			service.NewKarmicService(service.KarmicServiceConfig{
				Repo:       karmicRepo,
				UserRepo:   users,
				Geocoder:   a.geocoder,
				Astrology:  a.astrology,
				Numerology: a.numerology,
				LLM:        a.llm,
			}),
			service.NewKarmicChatService(service.KarmicChatServiceConfig{
				ChatRepo:   repository.NewKarmicChatRepository(store),
				ReportRepo: karmicRepo,
				LLM:        a.llm,
			}),
		),
		Assessment: NewAssessmentHandler(
			service.NewAssessmentService(service.AssessmentServiceConfig{ReportRepo: reports, LLM: a.llm}),
			service.NewFacePalmService(service.FacePalmServiceConfig{
				ReportRepo:     reports,
				OnboardingRepo: onboardingRepo,
				Blobs:          a.blobs,
				LLM:            a.llm,
			}),
		),
		Wellness: NewWellnessHandler(service.NewWellnessService(service.WellnessServiceConfig{
			ReportRepo:     reports,
			OnboardingRepo: onboardingRepo,
			AnswerRepo:     answers,
			LLM:            a.llm,
		})),
		Numerology: NewNumerologyHandler(service.NewNumerologyService(service.NumerologyServiceConfig{
			ReportRepo: reports,
			UserRepo:   users,
			Numerology: a.numerology,
			LLM:        a.llm,
		})),
		Wallet: NewWalletHandler(wallet),
		Chat: NewChatHandler(
			service.NewChatService(service.ChatServiceConfig{
				ReportRepo: reports,
				KarmicRepo: karmicRepo,
				UserRepo:   users,
				Wallet:     wallet,
				LLM:        a.llm,
			}),
			service.NewProxyService(a.proxy),
		),
	}

	auth := middleware.Auth(middleware.AuthConfig{Tokens: tokens})
	a.router = middleware.Chain(NewRouter(handlers, auth), middleware.Recovery)
	return a
}

// request starts a request signed in as user. A nil user sends no token.
func (a *testAPI) request(t *testing.T, method, path string, user *model.User) *helpers.RequestBuilder {
	t.Helper()
	rb := helpers.NewRequest(t, method, path)
	if user != nil {
		rb = rb.WithAuth(a.jwt, user)
	}
	return rb
}
