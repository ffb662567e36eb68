package model

import "testing"

func TestMedalFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		spent int
		want  Medal
	}{
		{0, MedalFree},
		{9, MedalFree},
		{10, MedalBronze},
		{49, MedalBronze},
		{50, MedalSilver},
		{99, MedalSilver},
		{100, MedalGold},
		{999, MedalGold},
		{1000, MedalPlatinum},
	}
	for _, tt := range tests {
		if got := MedalFor(tt.spent); got != tt.want {
			t.Errorf("MedalFor(%d) = %s, want %s", tt.spent, got, tt.want)
		}
	}
}

func TestWalletOf_NilSlicesBecomeEmpty(t *testing.T) {
	t.Parallel()
	w := WalletOf(&User{Ethers: 30, TotalSpent: 60})

	if w.Medal != MedalSilver {
		t.Errorf("expected Silver, got %s", w.Medal)
	}
	if w.UnlockedReports == nil {
		t.Error("expected an empty unlockedReports slice")
	}
}

func TestPurchaseRequest_Validate(t *testing.T) {
	t.Parallel()
	for amount, valid := range map[int]bool{0: false, 1: true, 10000: true, 10001: false, -5: false} {
		req := &PurchaseRequest{Amount: amount}
		if got := len(req.Validate(10000)) == 0; got != valid {
			t.Errorf("amount %d: valid=%v, want %v", amount, got, valid)
		}
	}
}

func TestUnlockRequest_Validate(t *testing.T) {
	t.Parallel()

	if errors := (&UnlockRequest{}).Validate(); len(errors) != 1 {
		t.Errorf("expected 1 error for empty ids, got %v", errors)
	}
	if errors := (&UnlockRequest{ReportIDs: []string{ReportAuraProfile, ReportNumerology}}).Validate(); len(errors) != 0 {
		t.Errorf("expected no errors, got %v", errors)
	}
	errors := (&UnlockRequest{ReportIDs: []string{ReportKoshaScan, "tarot"}}).Validate()
	if len(errors) != 1 || errors[0].Field != "reportIds" {
		t.Errorf("expected 1 reportIds error, got %v", errors)
	}
}
