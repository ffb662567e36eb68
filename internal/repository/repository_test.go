package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/service"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *database.SQLStore {
	t.Helper()

	store, err := database.OpenSQL(database.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// ============================================================================
// UserRepository
// ============================================================================

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()

	err := repo.Create(ctx, &model.User{ID: "u1", Email: "seeker@example.com", FullName: "Asha Rao", Ethers: 100, CreatedAt: testNow})
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Asha Rao", user.FullName)
	assert.Equal(t, 100, user.Ethers)
	assert.Equal(t, []string{}, user.UnlockedReports)
	assert.True(t, user.CreatedAt.Equal(testNow))

	byEmail, err := repo.GetByEmail(ctx, " Seeker@Example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u1", byEmail.ID)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: "a@example.com"}))
	err := repo.Create(ctx, &model.User{ID: "u1", Email: "b@example.com"})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))

	user, err := repo.GetByID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_Update(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", Ethers: 50}))

	updated, err := repo.Update(ctx, "u1", func(u *model.User) error {
		u.Ethers -= 20
		u.UnlockedReports = append(u.UnlockedReports, model.ReportAuraProfile)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Ethers)

	stored, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Ethers)
	assert.Equal(t, []string{model.ReportAuraProfile}, stored.UnlockedReports)
}

func TestUserRepository_UpdateErrors(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()

	_, err := repo.Update(ctx, "nobody", func(u *model.User) error { return nil })
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Ethers: 5}))
	_, err = repo.Update(ctx, "u1", func(u *model.User) error {
		u.Ethers = 0
		return service.ErrInsufficientEthers
	})
	assert.ErrorIs(t, err, service.ErrInsufficientEthers)

	stored, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Ethers, "failed update must not write")
}

func TestUserRepository_Upsert(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()

	var sawExisting []bool
	fn := func(u *model.User, exists bool) error {
		sawExisting = append(sawExisting, exists)
		u.Email = "a@example.com"
		u.DaysActive++
		return nil
	}

	first, err := repo.Upsert(ctx, "u1", fn)
	require.NoError(t, err)
	assert.Equal(t, "u1", first.ID)
	assert.Equal(t, 1, first.DaysActive)

	second, err := repo.Upsert(ctx, "u1", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, second.DaysActive)
	assert.Equal(t, []bool{false, true}, sawExisting)
}

// ============================================================================
// CredentialsRepository
// ============================================================================

func TestCredentialsRepository(t *testing.T) {
	repo := NewCredentialsRepository(newTestStore(t))
	ctx := context.Background()

	creds := &model.Credentials{UserID: "u1", Email: "Seeker@Example.com", Hash: "$2a$hash", CreatedAt: testNow}
	require.NoError(t, repo.Create(ctx, creds))

	got, err := repo.GetByEmail(ctx, "seeker@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "$2a$hash", got.Hash)

	err = repo.Create(ctx, &model.Credentials{UserID: "u2", Email: "seeker@example.com"})
	assert.ErrorIs(t, err, service.ErrEmailAlreadyExists)

	missing, err := repo.GetByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// ============================================================================
// TokenRepository
// ============================================================================

func TestTokenRepository_SaveRevokeFind(t *testing.T) {
	repo := NewTokenRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &model.RefreshToken{Hash: "h1", UserID: "u1", IssuedAt: testNow, ExpiresAt: testNow.Add(time.Hour)}))

	got, err := repo.FindByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.Hash)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.Revoked)

	won, err := repo.Revoke(ctx, "h1", "h2", testNow)
	require.NoError(t, err)
	assert.True(t, won)
	// a second revocation loses and does not overwrite the successor
	won, err = repo.Revoke(ctx, "h1", "", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won)

	got, err = repo.FindByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.Rotated())
	assert.Equal(t, "h2", got.ReplacedBy)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, got.RevokedAt.Equal(testNow))

	won, err = repo.Revoke(ctx, "unknown", "", testNow)
	require.NoError(t, err)
	assert.False(t, won)
	missing, err := repo.FindByHash(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenRepository_RevokeForUser(t *testing.T) {
	repo := NewTokenRepository(newTestStore(t))
	ctx := context.Background()

	for _, tok := range []*model.RefreshToken{
		{Hash: "a", UserID: "u1", ExpiresAt: testNow.Add(time.Hour)},
		{Hash: "b", UserID: "u1", ExpiresAt: testNow.Add(time.Hour)},
		{Hash: "done", UserID: "u1", ExpiresAt: testNow.Add(time.Hour), Revoked: true},
		{Hash: "c", UserID: "u2", ExpiresAt: testNow.Add(time.Hour)},
	} {
		require.NoError(t, repo.Save(ctx, tok))
	}

	n, err := repo.RevokeForUser(ctx, "u1", testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for hash, want := range map[string]bool{"a": true, "b": true, "done": true, "c": false} {
		got, err := repo.FindByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, want, got.Revoked, hash)
	}

	n, err = repo.RevokeForUser(ctx, "u1", testNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	repo := NewTokenRepository(newTestStore(t))
	ctx := context.Background()

	for _, tok := range []*model.RefreshToken{
		{Hash: "live", UserID: "u1", ExpiresAt: testNow.Add(time.Hour)},
		{Hash: "old", UserID: "u1", ExpiresAt: testNow.Add(-time.Hour)},
		{Hash: "old-revoked", UserID: "u1", ExpiresAt: testNow.Add(-time.Hour), Revoked: true},
		{Hash: "rotated", UserID: "u1", ExpiresAt: testNow.Add(time.Hour), Revoked: true, ReplacedBy: "live"},
	} {
		require.NoError(t, repo.Save(ctx, tok))
	}

	n, err := repo.DeleteExpired(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for hash, kept := range map[string]bool{"live": true, "rotated": true, "old": false, "old-revoked": false} {
		got, err := repo.FindByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, kept, got != nil, hash)
	}
}

// ============================================================================
// OnboardingRepository
// ============================================================================

func TestOnboardingRepository_SoulPathAndResponses(t *testing.T) {
	repo := NewOnboardingRepository(newTestStore(t))
	ctx := context.Background()

	empty, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, repo.SetSoulPath(ctx, "u1", "karmic"))
	require.NoError(t, repo.MergeResponse(ctx, "u1", "step1", model.OnboardingAnswer{Question: "Why?", Answer: "Growth"}))
	require.NoError(t, repo.MergeResponse(ctx, "u1", "step2", model.OnboardingAnswer{Question: "When?", Answer: "Now"}))
	require.NoError(t, repo.MergeResponse(ctx, "u1", "step1", model.OnboardingAnswer{Question: "Why?", Answer: "Peace"}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	want := &model.Onboarding{
		SoulPath: "karmic",
		Responses: map[string]model.OnboardingAnswer{
			"step1": {Question: "Why?", Answer: "Peace"},
			"step2": {Question: "When?", Answer: "Now"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("onboarding mismatch (-want +got):\n%s", diff)
	}
}

func TestOnboardingRepository_SoulAnswersMerge(t *testing.T) {
	repo := NewOnboardingRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.MergeSoulAnswers(ctx, "u1", &model.SoulAnswers{
		Name:    "Asha",
		Answers: map[string]string{"q1": "a1"},
	}))
	require.NoError(t, repo.MergeSoulAnswers(ctx, "u1", &model.SoulAnswers{
		Name:         "Asha",
		Answers:      map[string]string{"q2": "a2"},
		ProfileImage: "https://storage.test/p.jpg",
	}))

	got, err := repo.GetSoulAnswers(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]string{"q1": "a1", "q2": "a2"}, got.Answers)
	assert.Equal(t, "https://storage.test/p.jpg", got.ProfileImage)
}

func TestOnboardingRepository_AppendQAPairs(t *testing.T) {
	repo := NewOnboardingRepository(newTestStore(t))
	ctx := context.Background()

	none, err := repo.GetSoulPathAnswers(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.AppendQAPairs(ctx, "u1", model.QAPair{Question: "Q1", Answer: "A1", Type: model.QATypeAnswer, Timestamp: testNow}))
	require.NoError(t, repo.AppendQAPairs(ctx, "u1",
		model.QAPair{Type: model.QATypeFace, Analysis: "calm", Timestamp: testNow.Add(time.Minute)},
		model.QAPair{Type: model.QATypePalm, Analysis: "long life line", Timestamp: testNow.Add(2 * time.Minute)},
	))
	require.NoError(t, repo.AppendQAPairs(ctx, "u1"))

	qa, err := repo.GetSoulPathAnswers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, qa.QAPairs, 3)
	assert.Equal(t, "Q1", qa.QAPairs[0].Question)
	assert.Equal(t, model.QATypePalm, qa.QAPairs[2].Type)
	assert.True(t, qa.LastUpdated.Equal(testNow.Add(2*time.Minute)))
}

// ============================================================================
// Chat repositories
// ============================================================================

func TestChatAnswerRepository(t *testing.T) {
	repo := NewChatAnswerRepository(newTestStore(t))
	ctx := context.Background()

	first := &model.ChatAnswer{UserID: "u1", Question: "Q1", Answer: "A1", Timestamp: testNow}
	require.NoError(t, repo.AddAnswer(ctx, first))
	assert.NotEmpty(t, first.ID)
	require.NoError(t, repo.AddAnswer(ctx, &model.ChatAnswer{UserID: "u2", Question: "Q", Answer: "A", Timestamp: testNow}))
	require.NoError(t, repo.AddAnswer(ctx, &model.ChatAnswer{UserID: "u1", Question: "Q2", Answer: "A2", Timestamp: testNow.Add(time.Minute)}))

	answers, err := repo.ListAnswers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	for _, a := range answers {
		assert.Equal(t, "u1", a.UserID)
		assert.NotEmpty(t, a.ID)
	}

	none, err := repo.ListAnswers(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKarmicChatRepository(t *testing.T) {
	repo := NewKarmicChatRepository(newTestStore(t))
	ctx := context.Background()

	chat, err := repo.GetKarmicChat(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, chat)

	chat, err = repo.UpdateKarmicChat(ctx, "u1", func(c *model.KarmicChat, exists bool) error {
		assert.False(t, exists)
		c.Messages = append(c.Messages, model.ChatMessage{Role: "assistant", Content: "Welcome"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", chat.UserID)

	_, err = repo.UpdateKarmicChat(ctx, "u1", func(c *model.KarmicChat, exists bool) error {
		assert.True(t, exists)
		c.Messages = append(c.Messages, model.ChatMessage{Role: "user", Content: "Why?"})
		c.QuestionsUsed++
		return nil
	})
	require.NoError(t, err)

	stored, err := repo.GetKarmicChat(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, 1, stored.QuestionsUsed)
}

func TestKarmicChatRepository_UpdateErrorLeavesChat(t *testing.T) {
	repo := NewKarmicChatRepository(newTestStore(t))
	ctx := context.Background()

	_, err := repo.UpdateKarmicChat(ctx, "u1", func(c *model.KarmicChat, _ bool) error {
		c.QuestionsUsed = 1
		return nil
	})
	require.NoError(t, err)

	limitErr := errors.New("limit reached")
	_, err = repo.UpdateKarmicChat(ctx, "u1", func(c *model.KarmicChat, _ bool) error {
		c.QuestionsUsed = 99
		return limitErr
	})
	assert.ErrorIs(t, err, limitErr)

	stored, err := repo.GetKarmicChat(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QuestionsUsed)
}

// ============================================================================
// KarmicRepository
// ============================================================================

func TestKarmicRepository_Onboarding(t *testing.T) {
	store := newTestStore(t)
	repo := NewKarmicRepository(store)
	ctx := context.Background()

	onboarding := &model.LifePredictorOnboarding{
		BirthPlace: "Bengaluru", Lat: 12.97, Lng: 77.59, DOB: "1990-08-15", TOB: "06:30",
		Timezone: "+05:30", FirstName: "Asha", MiddleName: " ", LastName: "Rao", CompletedAt: testNow,
	}
	raw := &model.VedastroRecord{AstrologyData: "SUN: Leo", FetchedAt: testNow}
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", onboarding, raw))

	got, err := repo.GetOnboarding(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bengaluru", got.BirthPlace)
	assert.InDelta(t, 12.97, got.Lat, 1e-9)

	doc, err := store.Get(ctx, CollectionVedastroData, "u1")
	require.NoError(t, err)
	assert.Equal(t, "SUN: Leo", doc["astrologyData"])
}

func TestKarmicRepository_SaveReportMarksResults(t *testing.T) {
	store := newTestStore(t)
	repo := NewKarmicRepository(store)
	reports := NewReportRepository(store)
	ctx := context.Background()

	require.NoError(t, reports.MergeResults(ctx, "u1", &model.UserResults{
		Wellness: &model.WellnessResult{Responses: []string{"calm"}, CreatedAt: testNow},
	}))

	report := &model.KarmicReport{BirthPlace: "Bengaluru", AIGeneratedReport: "# Reading", AIReportSuccess: true, CreatedAt: testNow, LastUpdated: testNow}
	summary := &model.LifePredictorReport{Report: "# Reading", Timestamp: testNow, UserAnswers: []string{}, AIGenerated: true}
	require.NoError(t, repo.SaveReport(ctx, "u1", report, summary))

	got, err := repo.GetReport(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "# Reading", got.AIGeneratedReport)

	results, err := reports.GetResults(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, results.Karmic)
	require.NotNil(t, results.Wellness, "merge keeps other results")
	assert.Equal(t, []string{"calm"}, results.Wellness.Responses)

	lp, err := store.Get(ctx, CollectionLifePredictorReports, "u1")
	require.NoError(t, err)
	assert.Equal(t, "# Reading", lp["report"])
}

func TestKarmicRepository_ListFailedReports(t *testing.T) {
	repo := NewKarmicRepository(newTestStore(t))
	ctx := context.Background()

	save := func(userID string, success bool, retries int) {
		t.Helper()
		require.NoError(t, repo.SaveReport(ctx, userID,
			&model.KarmicReport{AIReportSuccess: success, RetryCount: retries, CreatedAt: testNow},
			&model.LifePredictorReport{Timestamp: testNow}))
	}
	save("ok", true, 1)
	save("failed-once", false, 1)
	save("failed-twice", false, 2)

	failed, err := repo.ListFailedReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 2)

	byUser := map[string]int{}
	for _, f := range failed {
		byUser[f.UserID] = f.RetryCount
	}
	assert.Equal(t, map[string]int{"failed-once": 1, "failed-twice": 2}, byUser)

	limited, err := repo.ListFailedReports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestKarmicRepository_CountRetry(t *testing.T) {
	repo := NewKarmicRepository(newTestStore(t))
	ctx := context.Background()
	require.NoError(t, repo.SaveReport(ctx, "u1",
		&model.KarmicReport{LifeArea: "career", RetryCount: 1, CreatedAt: testNow},
		&model.LifePredictorReport{Timestamp: testNow}))

	require.NoError(t, repo.CountRetry(ctx, "u1"))
	require.NoError(t, repo.CountRetry(ctx, "ghost"))

	report, err := repo.GetReport(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.RetryCount)
	assert.Equal(t, "career", report.LifeArea)

	failed, err := repo.ListFailedReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].RetryCount)

	ghost, err := repo.GetReport(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

// ============================================================================
// ReportRepository
// ============================================================================

func TestReportRepository_AuraAndVibrational(t *testing.T) {
	store := newTestStore(t)
	repo := NewReportRepository(store)
	ctx := context.Background()

	missing, err := repo.GetAura(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	answers := &model.StoredAnswers{Answers: map[string]string{"q1": "a1"}, UpdatedAt: testNow}
	require.NoError(t, repo.SaveAura(ctx, "u1", answers, &model.AuraReport{
		PrimaryColor: "Blue", PrimaryHex: "#0d6efd", SecondaryColors: []string{"Green"}, AuraScore: 88, CreatedAt: testNow,
	}))
	require.NoError(t, repo.SaveVibrational(ctx, "u1", answers, &model.VibrationalReport{
		Frequency: 520, Level: "High Vibrational", Color: "#10b981", Recommendations: []string{"Meditate"}, CreatedAt: testNow,
	}))

	aura, err := repo.GetAura(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Blue", aura.PrimaryColor)
	assert.Equal(t, []string{"Green"}, aura.SecondaryColors)

	vib, err := repo.GetVibrational(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 520, vib.Frequency, 1e-9)

	for _, coll := range []string{CollectionAuraAnswers, CollectionVibrationalAnswers} {
		doc, err := store.Get(ctx, coll, "u1")
		require.NoError(t, err, coll)
		assert.Equal(t, map[string]any{"q1": "a1"}, doc["answers"], coll)
	}
}

func TestReportRepository_FaceReading(t *testing.T) {
	repo := NewReportRepository(newTestStore(t))
	ctx := context.Background()

	reading := &model.FaceReading{
		Analysis:     parser.FacePalmAnalysis{},
		FaceImageURL: "https://storage.test/face",
		PalmImageURL: "https://storage.test/palm",
		AIGenerated:  true,
		CreatedAt:    testNow,
	}
	require.NoError(t, repo.SaveFaceReading(ctx, "u1", reading))

	got, err := repo.GetFaceReading(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://storage.test/palm", got.PalmImageURL)
	assert.True(t, got.AIGenerated)
}

func TestReportRepository_Numerology(t *testing.T) {
	repo := NewReportRepository(newTestStore(t))
	ctx := context.Background()

	for i, name := range []string{"First", "Second"} {
		id, err := repo.AddNumerology(ctx, "u1", &model.NumerologyReport{
			FirstName: name,
			BirthDate: "1990-08-15",
			Numbers:   map[string]any{"lifePath": map[string]any{"result": 5}},
			Answers:   []string{},
			CreatedAt: testNow.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}
	_, err := repo.AddNumerology(ctx, "u2", &model.NumerologyReport{FirstName: "Other", CreatedAt: testNow})
	require.NoError(t, err)

	reports, err := repo.ListNumerology(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Second", reports[0].FirstName)
	assert.Equal(t, "First", reports[1].FirstName)
	assert.NotEmpty(t, reports[0].ID)
	assert.NotEqual(t, reports[0].ID, reports[1].ID)
}
