// Package fixtures provides test data factories for e2e testing.
//
// Each factory method creates entities with sensible defaults while allowing
// customization via option functions. Factories write through the real
// repositories and return fully populated models.
//
// Usage:
//
//	f := fixtures.New(tdb.Store)
//	user := f.CreateUser(t)
//	f.CreateAuraReport(t, user)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/repository"
)

// Factory creates test entities in the store
type Factory struct {
	store       database.Store
	users       *repository.UserRepository
	credentials *repository.CredentialsRepository
	reports     *repository.ReportRepository
	karmic      *repository.KarmicRepository
	onboarding  *repository.OnboardingRepository
	answers     *repository.ChatAnswerRepository
}

// New creates a new fixture factory
func New(store database.Store) *Factory {
	return &Factory{
		store:       store,
		users:       repository.NewUserRepository(store),
		credentials: repository.NewCredentialsRepository(store),
		reports:     repository.NewReportRepository(store),
		karmic:      repository.NewKarmicRepository(store),
		onboarding:  repository.NewOnboardingRepository(store),
		answers:     repository.NewChatAnswerRepository(store),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	ID           string
	Email        string
	FullName     string
	Password     string
	Ethers       int
	DateOfBirth  string
	TimeOfBirth  string
	Timezone     string
	PlaceOfBirth string
	Unlocked     []string
}

// WithEthers sets the starting balance
func WithEthers(n int) func(*UserOpts) {
	return func(o *UserOpts) { o.Ethers = n }
}

// WithEmail sets the email address
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// WithPassword sets the login password
func WithPassword(password string) func(*UserOpts) {
	return func(o *UserOpts) { o.Password = password }
}

// WithBirth sets the birth details used by the astrology and numerology
// reports
func WithBirth(date, clock, tz, place string) func(*UserOpts) {
	return func(o *UserOpts) {
		o.DateOfBirth = date
		o.TimeOfBirth = clock
		o.Timezone = tz
		o.PlaceOfBirth = place
	}
}

// WithUnlocked marks reports as already unlocked
func WithUnlocked(reports ...string) func(*UserOpts) {
	return func(o *UserOpts) { o.Unlocked = reports }
}

// CreateUser creates a user with credentials so it can also log in
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := &UserOpts{
		ID:       "user_" + id,
		Email:    fmt.Sprintf("seeker_%s@test.local", id),
		FullName: "Test Seeker",
		Password: "testpass123",
	}
	for _, fn := range opts {
		fn(o)
	}

	user := &model.User{
		ID:              o.ID,
		Email:           o.Email,
		FullName:        o.FullName,
		DateOfBirth:     o.DateOfBirth,
		TimeOfBirth:     o.TimeOfBirth,
		Timezone:        o.Timezone,
		PlaceOfBirth:    o.PlaceOfBirth,
		Ethers:          o.Ethers,
		UnlockedReports: o.Unlocked,
		CreatedAt:       time.Now().UTC(),
	}
	if err := f.users.Create(testCtx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	err = f.credentials.Create(testCtx(t), &model.Credentials{
		UserID:    user.ID,
		Email:     user.Email,
		Hash:      string(hash),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create credentials: %v", err)
	}

	created, err := f.users.GetByID(testCtx(t), user.ID)
	if err != nil {
		t.Fatalf("fixtures: failed to read user back: %v", err)
	}
	return created
}

// ============================================================================
// Report Fixtures
// ============================================================================

// CreateAuraReport stores an aura report for the user
func (f *Factory) CreateAuraReport(t *testing.T, user *model.User) *model.AuraReport {
	t.Helper()

	report := &model.AuraReport{
		PrimaryColor:      "Indigo",
		PrimaryHex:        "#4B0082",
		SecondaryColors:   []string{"Gold"},
		SecondaryHex:      []string{"#FFD700"},
		AuraScore:         82,
		PersonalityTraits: "Intuitive and calm",
		Affirmation:       "I trust my inner light",
		AIGenerated:       true,
		CreatedAt:         time.Now().UTC(),
	}
	answers := &model.StoredAnswers{
		Answers:   map[string]string{"q1": "I meditate daily"},
		UpdatedAt: time.Now().UTC(),
	}
	if err := f.reports.SaveAura(testCtx(t), user.ID, answers, report); err != nil {
		t.Fatalf("fixtures: failed to save aura report: %v", err)
	}
	return report
}

// CreateKarmicReport stores a karmic report. A failed report is picked up
// by the retry job.
func (f *Factory) CreateKarmicReport(t *testing.T, user *model.User, succeeded bool) *model.KarmicReport {
	t.Helper()

	now := time.Now().UTC()
	report := &model.KarmicReport{
		BirthPlace:     "Bengaluru, India",
		LifeArea:       "career",
		JyotishReading: "SUN: Leo",
		Lat:            12.97,
		Lng:            77.59,
		BirthData: model.KarmicBirthData{
			Location: "Bengaluru, India",
			DOB:      "1990-08-15",
			TOB:      "06:30",
			Timezone: "+05:30",
		},
		AIReportSuccess: succeeded,
		CreatedAt:       now,
		LastUpdated:     now,
	}
	if succeeded {
		report.AIGeneratedReport = "Your karmic path leads through service."
	} else {
		report.AIReportError = "upstream timeout"
	}
	summary := &model.LifePredictorReport{
		Report:      report.AIGeneratedReport,
		Timestamp:   now,
		UserAnswers: []string{report.BirthPlace, report.LifeArea},
		AIGenerated: succeeded,
	}
	if err := f.karmic.SaveReport(testCtx(t), user.ID, report, summary); err != nil {
		t.Fatalf("fixtures: failed to save karmic report: %v", err)
	}
	return report
}

// ============================================================================
// Onboarding Fixtures
// ============================================================================

// AddChatAnswers stores guide conversation answers for the user
func (f *Factory) AddChatAnswers(t *testing.T, user *model.User, pairs ...[2]string) {
	t.Helper()

	for i, p := range pairs {
		answer := &model.ChatAnswer{
			UserID:    user.ID,
			Question:  p[0],
			Answer:    p[1],
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}
		if err := f.answers.AddAnswer(testCtx(t), answer); err != nil {
			t.Fatalf("fixtures: failed to add chat answer: %v", err)
		}
	}
}

// SetSoulPath stores the chosen onboarding path
func (f *Factory) SetSoulPath(t *testing.T, user *model.User, path string) {
	t.Helper()
	if err := f.onboarding.SetSoulPath(testCtx(t), user.ID, path); err != nil {
		t.Fatalf("fixtures: failed to set soul path: %v", err)
	}
}
