package main

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eternal-ai/api/internal/bootstrap"
	"github.com/eternal-ai/api/internal/config"
	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/repository"
	"github.com/eternal-ai/api/internal/service"
)

var (
	grantUser   string
	grantAmount int
)

// migrateCmd applies the SQL migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (postgres and sqlite only)",
	RunE:  runMigrate,
}

// grantEthersCmd credits ethers without recording a purchase
var grantEthersCmd = &cobra.Command{
	Use:   "grant-ethers",
	Short: "Credit ethers to a user's wallet",
	Long: `Credits ethers to a wallet without counting them as spent, for support
refunds and promotions.

Example:
  eternalctl grant-ethers --user user_123 --amount 50`,
	RunE: runGrantEthers,
}

// cleanupTokensCmd deletes expired refresh tokens once
var cleanupTokensCmd = &cobra.Command{
	Use:   "cleanup-tokens",
	Short: "Delete expired refresh tokens",
	RunE:  runCleanupTokens,
}

// healthCmd checks the store and the numerology API
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the store and upstream APIs",
	RunE:  runHealth,
}

func init() {
	grantEthersCmd.Flags().StringVar(&grantUser, "user", "", "User ID to credit")
	grantEthersCmd.Flags().IntVar(&grantAmount, "amount", 0, "Ethers to credit")
	_ = grantEthersCmd.MarkFlagRequired("user")
	_ = grantEthersCmd.MarkFlagRequired("amount")
}

// openStore loads the server configuration and connects its store
func openStore(ctx context.Context) (*config.Config, database.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Database.Validate(cfg.Firebase); err != nil {
		return nil, nil, fmt.Errorf("database config: %w", err)
	}

	var app *firebase.App
	if cfg.Database.Driver == config.DriverFirestore {
		app, err = bootstrap.NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := bootstrap.OpenStore(ctx, cfg, app)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("store opened", zap.String("driver", cfg.Database.Driver))
	return cfg, store, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	// OpenStore migrates SQL stores on open
	cfg, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, ok := store.(*database.SQLStore); !ok {
		logger.Info("driver has no schema, nothing to migrate", zap.String("driver", cfg.Database.Driver))
		return nil
	}
	logger.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
	return nil
}

func runGrantEthers(cmd *cobra.Command, args []string) error {
	if grantAmount <= 0 {
		return errors.New("--amount must be positive")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	wallet := service.NewWalletService(service.WalletServiceConfig{
		UserRepo:    repository.NewUserRepository(store),
		UnlockCost:  cfg.Wallet.UnlockCost,
		MaxPurchase: cfg.Wallet.MaxPurchase,
	})
	w, err := wallet.Grant(ctx, grantUser, grantAmount)
	if err != nil {
		return fmt.Errorf("grant ethers: %w", err)
	}

	logger.Info("ethers granted",
		zap.String("user_id", grantUser),
		zap.Int("amount", grantAmount),
		zap.Int("balance", w.Ethers),
	)
	return nil
}

func runCleanupTokens(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	_, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tokens := service.NewTokenService(service.TokenServiceConfig{
		TokenRepo: repository.NewTokenRepository(store),
	})
	n, err := tokens.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup tokens: %w", err)
	}

	logger.Info("expired refresh tokens removed", zap.Int("count", n))
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var errs []error
	if err := store.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	} else {
		logger.Info("store reachable", zap.String("driver", cfg.Database.Driver))
	}

	upstream := bootstrap.NewProviders(ctx, cfg)
	if !upstream.Numerology.Configured() {
		logger.Warn("numerology API key not set, skipping")
	} else if err := upstream.Numerology.Health(ctx); err != nil {
		errs = append(errs, fmt.Errorf("numerology: %w", err))
	} else {
		logger.Info("numerology API reachable")
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("health check failed", zap.Error(err))
		return err
	}
	return nil
}
