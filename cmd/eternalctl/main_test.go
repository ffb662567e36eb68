package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eternal-ai/api/internal/bootstrap"
	"github.com/eternal-ai/api/internal/config"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/repository"
	"github.com/eternal-ai/api/pkg/jwt"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	timeout = 10 * time.Second
}

// useSQLite points the store commands at a fresh sqlite file
func useSQLite(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "eternal.db")
	t.Setenv("DB_DRIVER", config.DriverSQLite)
	t.Setenv("DB_DSN", dsn)
	return dsn
}

func TestKeysThenToken(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	keyPath = filepath.Join(dir, "keys", "private.pem")
	pubKeyPath = filepath.Join(dir, "keys", "public.pem")

	require.NoError(t, runKeys(&cobra.Command{}, nil))

	userID, email, issuer, expMins, outputJSON = "user_1", "seeker@example.com", "test-issuer", 30, true
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runToken(cmd, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, "Bearer", body["token_type"])
	assert.EqualValues(t, 30*60, body["expires_in"])

	verifier, err := jwt.NewService(jwt.Config{PublicKeyPath: pubKeyPath, Issuer: "test-issuer", ExpirationMins: 30})
	require.NoError(t, err)
	claims, err := verifier.Validate(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.UserID)
	assert.Equal(t, "seeker@example.com", claims.Email)
}

func TestToken_MissingKey(t *testing.T) {
	setup(t)
	keyPath = filepath.Join(t.TempDir(), "absent.pem")

	err := runToken(&cobra.Command{}, nil)

	assert.ErrorContains(t, err, "eternalctl keys")
}

func TestGrantEthers(t *testing.T) {
	setup(t)
	useSQLite(t)

	ctx := context.Background()
	cfg, err := config.Load()
	require.NoError(t, err)
	store, err := bootstrap.OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	users := repository.NewUserRepository(store)
	require.NoError(t, users.Create(ctx, &model.User{ID: "user_1", Email: "seeker@example.com", Ethers: 5}))
	require.NoError(t, store.Close())

	grantUser, grantAmount = "user_1", 50
	require.NoError(t, runGrantEthers(&cobra.Command{}, nil))

	store, err = bootstrap.OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	user, err := repository.NewUserRepository(store).GetByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 55, user.Ethers)
	assert.Zero(t, user.TotalSpent)
}

func TestGrantEthers_RejectsNonPositive(t *testing.T) {
	setup(t)
	grantUser, grantAmount = "user_1", 0

	assert.ErrorContains(t, runGrantEthers(&cobra.Command{}, nil), "--amount")
}

func TestMigrateAndCleanup(t *testing.T) {
	setup(t)
	useSQLite(t)

	require.NoError(t, runMigrate(&cobra.Command{}, nil))
	require.NoError(t, runCleanupTokens(&cobra.Command{}, nil))
}

func TestHealth_StoreOnly(t *testing.T) {
	setup(t)
	useSQLite(t)
	t.Setenv("NUMEROLOGY_API_KEY", "")

	assert.NoError(t, runHealth(&cobra.Command{}, nil))
}
