package model

import (
	"fmt"
	"slices"
)

// Medal is a tier derived from the total ethers a user has purchased
type Medal string

const (
	MedalFree     Medal = "Free"
	MedalBronze   Medal = "Bronze"
	MedalSilver   Medal = "Silver"
	MedalGold     Medal = "Gold"
	MedalPlatinum Medal = "Platinum"
)

// MedalFor returns the medal earned by totalSpent
func MedalFor(totalSpent int) Medal {
	switch {
	case totalSpent >= 1000:
		return MedalPlatinum
	case totalSpent >= 100:
		return MedalGold
	case totalSpent >= 50:
		return MedalSilver
	case totalSpent >= 10:
		return MedalBronze
	default:
		return MedalFree
	}
}

// Unlockable report ids
const (
	ReportVibrationalFrequency = "vibrational-frequency"
	ReportAuraProfile          = "aura-profile"
	ReportFlameScore           = "flame-score"
	ReportKoshaScan            = "kosha-scan"
	ReportLongevityIndex       = "longevity-index"
	ReportNumerology           = "numerology"
)

// UnlockableReports lists every report id that can be unlocked
var UnlockableReports = []string{
	ReportVibrationalFrequency,
	ReportAuraProfile,
	ReportFlameScore,
	ReportKoshaScan,
	ReportLongevityIndex,
	ReportNumerology,
}

// IsUnlockableReport reports whether id names an unlockable report
func IsUnlockableReport(id string) bool {
	return slices.Contains(UnlockableReports, id)
}

// Wallet is the balance view of a user
type Wallet struct {
	Ethers          int      `json:"ethers"`
	TotalSpent      int      `json:"totalSpent"`
	Medal           Medal    `json:"medal"`
	UnlockedReports []string `json:"unlockedReports"`
}

// WalletOf returns the wallet view of u
func WalletOf(u *User) Wallet {
	return Wallet{
		Ethers:          u.Ethers,
		TotalSpent:      u.TotalSpent,
		Medal:           MedalFor(u.TotalSpent),
		UnlockedReports: nonNil(u.UnlockedReports),
	}
}

// PurchaseRequest adds ethers to the wallet
type PurchaseRequest struct {
	Amount int `json:"amount"`
}

// Validate checks the amount against the purchase ceiling
func (r *PurchaseRequest) Validate(maxPurchase int) []FieldError {
	if r.Amount < 1 || r.Amount > maxPurchase {
		return []FieldError{{Field: "amount", Message: fmt.Sprintf("amount must be between 1 and %d", maxPurchase)}}
	}
	return nil
}

// UnlockRequest unlocks reports with ethers
type UnlockRequest struct {
	ReportIDs []string `json:"reportIds"`
}

// Validate checks that at least one known report id is given
func (r *UnlockRequest) Validate() []FieldError {
	var errors []FieldError
	if len(r.ReportIDs) == 0 {
		errors = append(errors, FieldError{Field: "reportIds", Message: "at least one report id is required"})
	}
	for _, id := range r.ReportIDs {
		if !IsUnlockableReport(id) {
			errors = append(errors, FieldError{Field: "reportIds", Message: fmt.Sprintf("unknown report id %q", id)})
		}
	}
	return errors
}

// UnlockResult reports what an unlock charged
type UnlockResult struct {
	Wallet
	Unlocked []string `json:"unlocked"`
	Charged  int      `json:"charged"`
}
