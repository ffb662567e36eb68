package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/model"
)

func newTestWallet(users *mockUserRepo) *WalletService {
	return NewWalletService(WalletServiceConfig{UserRepo: users})
}

func TestNewWalletService_Defaults(t *testing.T) {
	t.Parallel()
	svc := newTestWallet(newMockUserRepo())

	assert.Equal(t, DefaultUnlockCost, svc.unlockCost)
	assert.Equal(t, DefaultMaxPurchase, svc.MaxPurchase())
}

func TestWalletPurchase_CountsTowardMedal(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo(&model.User{ID: "u1", Ethers: 5})
	svc := newTestWallet(users)

	w, err := svc.Purchase(context.Background(), "u1", model.PurchaseRequest{Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, 105, w.Ethers)
	assert.Equal(t, 100, w.TotalSpent)
	assert.Equal(t, model.MedalGold, w.Medal)
}

func TestWalletPurchase_RejectsOutOfRange(t *testing.T) {
	t.Parallel()
	svc := newTestWallet(newMockUserRepo(&model.User{ID: "u1"}))

	for _, amount := range []int{0, -5, DefaultMaxPurchase + 1} {
		_, err := svc.Purchase(context.Background(), "u1", model.PurchaseRequest{Amount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %d", amount)
	}
}

func TestWalletGrant_DoesNotCountAsSpent(t *testing.T) {
	t.Parallel()
	svc := newTestWallet(newMockUserRepo(&model.User{ID: "u1"}))

	w, err := svc.Grant(context.Background(), "u1", 50)
	require.NoError(t, err)

	assert.Equal(t, 50, w.Ethers)
	assert.Equal(t, 0, w.TotalSpent)
	assert.Equal(t, model.MedalFree, w.Medal)
}

func TestWalletGet_UnknownUser(t *testing.T) {
	t.Parallel()
	svc := newTestWallet(newMockUserRepo())

	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWalletUnlock_ChargesOnlyNewReports(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo(&model.User{
		ID:              "u1",
		Ethers:          100,
		UnlockedReports: []string{model.ReportAuraProfile},
	})
	svc := newTestWallet(users)

	res, err := svc.Unlock(context.Background(), "u1", model.UnlockRequest{ReportIDs: []string{
		model.ReportAuraProfile,
		model.ReportKoshaScan,
		model.ReportKoshaScan,
		model.ReportNumerology,
	}})
	require.NoError(t, err)

	assert.Equal(t, 2*DefaultUnlockCost, res.Charged)
	assert.Equal(t, 100-2*DefaultUnlockCost, res.Wallet.Ethers)
	if diff := cmp.Diff([]string{model.ReportKoshaScan, model.ReportNumerology}, res.Unlocked); diff != "" {
		t.Errorf("unlocked mismatch (-want +got):\n%s", diff)
	}
	want := []string{model.ReportAuraProfile, model.ReportKoshaScan, model.ReportNumerology}
	if diff := cmp.Diff(want, users.get("u1").UnlockedReports); diff != "" {
		t.Errorf("stored reports mismatch (-want +got):\n%s", diff)
	}
}

func TestWalletUnlock_AlreadyUnlockedIsFree(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo(&model.User{ID: "u1", UnlockedReports: []string{model.ReportFlameScore}})
	svc := newTestWallet(users)

	res, err := svc.Unlock(context.Background(), "u1", model.UnlockRequest{ReportIDs: []string{model.ReportFlameScore}})
	require.NoError(t, err)

	assert.Zero(t, res.Charged)
	assert.Empty(t, res.Unlocked)
	assert.NotNil(t, res.Unlocked)
}

func TestWalletUnlock_InsufficientBalanceChangesNothing(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo(&model.User{ID: "u1", Ethers: 30})
	svc := newTestWallet(users)

	_, err := svc.Unlock(context.Background(), "u1", model.UnlockRequest{ReportIDs: []string{
		model.ReportKoshaScan, model.ReportLongevityIndex,
	}})

	var insufficient *InsufficientEthersError
	require.True(t, errors.As(err, &insufficient), "expected InsufficientEthersError, got %v", err)
	assert.ErrorIs(t, err, ErrInsufficientEthers)
	assert.Equal(t, 40, insufficient.Required)
	assert.Equal(t, 30, insufficient.Balance)

	stored := users.get("u1")
	assert.Equal(t, 30, stored.Ethers)
	assert.Empty(t, stored.UnlockedReports)
}

func TestWalletUnlock_UnknownReport(t *testing.T) {
	t.Parallel()
	svc := newTestWallet(newMockUserRepo(&model.User{ID: "u1", Ethers: 100}))

	_, err := svc.Unlock(context.Background(), "u1", model.UnlockRequest{ReportIDs: []string{"tarot"}})
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestWalletDebitAndRefund(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo(&model.User{ID: "u1", Ethers: 15})
	svc := newTestWallet(users)
	ctx := context.Background()

	w, err := svc.Debit(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Ethers)

	_, err = svc.Debit(ctx, "u1", 10)
	assert.ErrorIs(t, err, ErrInsufficientEthers)

	require.NoError(t, svc.Refund(ctx, "u1", 10))
	assert.Equal(t, 15, users.get("u1").Ethers)
}
