package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"

	"github.com/eternal-ai/api/internal/bootstrap"
	"github.com/eternal-ai/api/internal/config"
	"github.com/eternal-ai/api/internal/handler"
	"github.com/eternal-ai/api/internal/jobs"
	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/repository"
	"github.com/eternal-ai/api/internal/service"
	"github.com/eternal-ai/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: bootstrap.ParseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	var app *firebase.App
	if bootstrap.NeedsFirebase(cfg) {
		app, err = bootstrap.NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			slog.Error("failed to initialize firebase", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize document store
	store, err := bootstrap.OpenStore(ctx, cfg, app)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	slog.Info("connected to database", slog.String("driver", cfg.Database.Driver))

	blobs, closeBlobs, err := bootstrap.OpenBlobs(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeBlobs()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	upstream := bootstrap.NewProviders(ctx, cfg)
	providerStatus := upstream.Status(cfg, blobs)
	slog.Info("providers", slog.Any("configured", providerStatus))

	// Initialize repositories
	userRepo := repository.NewUserRepository(store)
	credentialsRepo := repository.NewCredentialsRepository(store)
	tokenRepo := repository.NewTokenRepository(store)
	onboardingRepo := repository.NewOnboardingRepository(store)
	answerRepo := repository.NewChatAnswerRepository(store)
	karmicRepo := repository.NewKarmicRepository(store)
	karmicChatRepo := repository.NewKarmicChatRepository(store)
	reportRepo := repository.NewReportRepository(store)

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService:      jwtService,
		TokenRepo:       tokenRepo,
		RefreshDuration: cfg.JWT.RefreshTokenExpiry,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:        userRepo,
		CredentialsRepo: credentialsRepo,
		TokenService:    tokenService,
	})
	profileService := service.NewProfileService(service.ProfileServiceConfig{
		UserRepo:       userRepo,
		OnboardingRepo: onboardingRepo,
		Blobs:          blobs,
		MaxImageBytes:  cfg.Storage.MaxImageBytes,
	})
	onboardingService := service.NewOnboardingService(service.OnboardingServiceConfig{
		OnboardingRepo: onboardingRepo,
		AnswerRepo:     answerRepo,
	})
	walletService := service.NewWalletService(service.WalletServiceConfig{
		UserRepo:    userRepo,
		UnlockCost:  cfg.Wallet.UnlockCost,
		MaxPurchase: cfg.Wallet.MaxPurchase,
	})
	karmicService := service.NewKarmicService(service.KarmicServiceConfig{
		Repo:       karmicRepo,
		UserRepo:   userRepo,
		Geocoder:   upstream.Geocoder,
		Astrology:  upstream.Astrology,
		Numerology: upstream.Numerology,
		LLM:        upstream.LLM,
	})
	karmicChatService := service.NewKarmicChatService(service.KarmicChatServiceConfig{
		ChatRepo:   karmicChatRepo,
		ReportRepo: karmicRepo,
		LLM:        upstream.LLM,
	})
	assessmentService := service.NewAssessmentService(service.AssessmentServiceConfig{
		ReportRepo: reportRepo,
		LLM:        upstream.LLM,
	})
	facePalmService := service.NewFacePalmService(service.FacePalmServiceConfig{
		ReportRepo:     reportRepo,
		OnboardingRepo: onboardingRepo,
		Blobs:          blobs,
		LLM:            upstream.LLM,
		MaxImageBytes:  cfg.Storage.MaxImageBytes,
	})
	wellnessService := service.NewWellnessService(service.WellnessServiceConfig{
		ReportRepo:     reportRepo,
		OnboardingRepo: onboardingRepo,
		AnswerRepo:     answerRepo,
		LLM:            upstream.LLM,
	})
	numerologyService := service.NewNumerologyService(service.NumerologyServiceConfig{
		ReportRepo: reportRepo,
		UserRepo:   userRepo,
		Numerology: upstream.Numerology,
		LLM:        upstream.LLM,
	})
	chatService := service.NewChatService(service.ChatServiceConfig{
		ReportRepo: reportRepo,
		KarmicRepo: karmicRepo,
		UserRepo:   userRepo,
		Wallet:     walletService,
		LLM:        upstream.LLM,
		DailyCost:  cfg.Wallet.DailyChatCost,
	})
	proxyService := service.NewProxyService(upstream.OpenAI)

	// Initialize auth middleware. Firebase ID tokens are accepted next to
	// our own access tokens when enabled.
	authConfig := middleware.AuthConfig{Tokens: tokenService, Users: profileService}
	if cfg.Firebase.VerifyIDTokens {
		verifier, err := middleware.NewFirebaseVerifier(ctx, app)
		if err != nil {
			slog.Error("failed to initialize firebase auth", slog.String("error", err.Error()))
			os.Exit(1)
		}
		authConfig.IDTokens = verifier
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,

		TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Initialize handlers
	mux := handler.NewRouter(handler.Handlers{
		Health:     handler.NewHealthHandler(store, providerStatus),
		Auth:       handler.NewAuthHandler(authService),
		Profile:    handler.NewProfileHandler(profileService),
		Onboarding: handler.NewOnboardingHandler(onboardingService),
		Karmic:     handler.NewKarmicHandler(karmicService, karmicChatService),
		Assessment: handler.NewAssessmentHandler(assessmentService, facePalmService),
		Wellness:   handler.NewWellnessHandler(wellnessService),
		Numerology: handler.NewNumerologyHandler(numerologyService),
		Wallet:     handler.NewWalletHandler(walletService),
		Chat:       handler.NewChatHandler(chatService, proxyService),
	}, middleware.Auth(authConfig))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Compress,
		middleware.Idempotency(idempotencyStore),
	)

	// Start background jobs
	tokenCleanup := jobs.NewTokenCleanup(tokenService, cfg.Jobs.TokenCleanupInterval)
	tokenCleanup.Start()
	defer tokenCleanup.Stop()

	karmicRetry := jobs.NewKarmicRetry(karmicService, cfg.Jobs.KarmicRetryInterval, cfg.Jobs.KarmicRetryBatch)
	if upstream.LLM.Configured() {
		karmicRetry.Start()
		defer karmicRetry.Stop()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("server error", slog.String("error", err.Error()))
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
