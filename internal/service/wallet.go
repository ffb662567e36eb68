package service

import (
	"context"
	"slices"

	"github.com/eternal-ai/api/internal/model"
)

// Wallet defaults
const (
	DefaultDailyChatCost = 10
	DefaultUnlockCost    = 20
	DefaultMaxPurchase   = 10000
)

// WalletService manages ether balances and report unlocks. Every balance
// change runs inside a user transaction.
type WalletService struct {
	userRepo    UserRepository
	unlockCost  int
	maxPurchase int
}

// WalletServiceConfig holds configuration for the wallet service
type WalletServiceConfig struct {
	UserRepo    UserRepository
	UnlockCost  int
	MaxPurchase int
}

// NewWalletService creates a new wallet service
func NewWalletService(cfg WalletServiceConfig) *WalletService {
	s := &WalletService{
		userRepo:    cfg.UserRepo,
		unlockCost:  cfg.UnlockCost,
		maxPurchase: cfg.MaxPurchase,
	}
	if s.unlockCost <= 0 {
		s.unlockCost = DefaultUnlockCost
	}
	if s.maxPurchase <= 0 {
		s.maxPurchase = DefaultMaxPurchase
	}
	return s
}

// MaxPurchase returns the largest amount accepted by Purchase
func (s *WalletService) MaxPurchase() int {
	return s.maxPurchase
}

// Get returns the wallet of a user
func (s *WalletService) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	w := model.WalletOf(user)
	return &w, nil
}

// Purchase credits purchased ethers and counts them toward the medal
func (s *WalletService) Purchase(ctx context.Context, userID string, req model.PurchaseRequest) (*model.Wallet, error) {
	if req.Amount < 1 || req.Amount > s.maxPurchase {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.Ethers += req.Amount
		u.TotalSpent += req.Amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	w := model.WalletOf(user)
	return &w, nil
}

// Grant credits ethers without counting them as spent
func (s *WalletService) Grant(ctx context.Context, userID string, amount int) (*model.Wallet, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.Ethers += amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	w := model.WalletOf(user)
	return &w, nil
}

// Unlock unlocks reports. Reports already unlocked are free; the rest cost
// the unlock price each and are charged together or not at all.
func (s *WalletService) Unlock(ctx context.Context, userID string, req model.UnlockRequest) (*model.UnlockResult, error) {
	for _, id := range req.ReportIDs {
		if !model.IsUnlockableReport(id) {
			return nil, ErrUnknownReport
		}
	}

	var unlocked []string
	charged := 0
	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		unlocked, charged = nil, 0
		for _, id := range req.ReportIDs {
			if slices.Contains(u.UnlockedReports, id) || slices.Contains(unlocked, id) {
				continue
			}
			unlocked = append(unlocked, id)
		}
		charged = len(unlocked) * s.unlockCost
		if u.Ethers < charged {
			return &InsufficientEthersError{Required: charged, Balance: u.Ethers}
		}
		u.Ethers -= charged
		u.UnlockedReports = append(u.UnlockedReports, unlocked...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.UnlockResult{
		Wallet:   model.WalletOf(user),
		Unlocked: nonNilStrings(unlocked),
		Charged:  charged,
	}, nil
}

// Debit takes amount ethers from the balance, failing when it is short
func (s *WalletService) Debit(ctx context.Context, userID string, amount int) (*model.Wallet, error) {
	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if u.Ethers < amount {
			return &InsufficientEthersError{Required: amount, Balance: u.Ethers}
		}
		u.Ethers -= amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	w := model.WalletOf(user)
	return &w, nil
}

// Refund returns a debited amount
func (s *WalletService) Refund(ctx context.Context, userID string, amount int) error {
	_, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.Ethers += amount
		return nil
	})
	return err
}
