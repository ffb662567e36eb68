package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Mocks
// ============================================================================

type mockTokens struct {
	mu    sync.Mutex
	calls int
	n     int
	err   error
	ran   chan struct{}
}

func (m *mockTokens) CleanupExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ran != nil {
		select {
		case m.ran <- struct{}{}:
		default:
		}
	}
	return m.n, m.err
}

func (m *mockTokens) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockKarmic struct {
	mu          sync.Mutex
	failed      []service.FailedKarmicReport
	listErr     error
	regenErr    map[string]error
	regenerated []string
	block       chan struct{}
}

func (m *mockKarmic) FailedReports(ctx context.Context, limit int) ([]service.FailedKarmicReport, error) {
	return m.failed, m.listErr
}

func (m *mockKarmic) Regenerate(ctx context.Context, userID string) (*model.KarmicReport, error) {
	if m.block != nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regenerated = append(m.regenerated, userID)
	if err := m.regenErr[userID]; err != nil {
		return nil, err
	}
	return &model.KarmicReport{AIReportSuccess: true}, nil
}

// ============================================================================
// TokenCleanup
// ============================================================================

func TestTokenCleanup_RunOnce(t *testing.T) {
	tokens := &mockTokens{n: 3}
	job := NewTokenCleanup(tokens, time.Hour)

	require.NoError(t, job.RunOnce(context.Background()))
	assert.Equal(t, 1, tokens.Calls())
}

func TestTokenCleanup_RunOnceError(t *testing.T) {
	tokens := &mockTokens{err: errors.New("store down")}
	job := NewTokenCleanup(tokens, time.Hour)

	assert.EqualError(t, job.RunOnce(context.Background()), "store down")
}

func TestTokenCleanup_StartStop(t *testing.T) {
	tokens := &mockTokens{ran: make(chan struct{}, 1)}
	job := NewTokenCleanup(tokens, 10*time.Millisecond)
	job.initialDelay = 0

	job.Start()
	job.Start() // no-op
	assert.True(t, job.IsRunning())

	select {
	case <-tokens.ran:
	case <-time.After(time.Second):
		t.Fatal("cleanup never ran")
	}

	job.Stop()
	job.Stop() // no-op
	assert.False(t, job.IsRunning())

	calls := tokens.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, tokens.Calls(), "no pass after Stop")
}

func TestTokenCleanup_StopDuringInitialDelay(t *testing.T) {
	tokens := &mockTokens{}
	job := NewTokenCleanup(tokens, time.Hour)

	job.Start()
	job.Stop()

	assert.Zero(t, tokens.Calls())
}

func TestTokenCleanup_DefaultInterval(t *testing.T) {
	job := NewTokenCleanup(&mockTokens{}, 0)
	assert.Equal(t, 6*time.Hour, job.interval)
}

// ============================================================================
// KarmicRetry
// ============================================================================

func TestKarmicRetry_SkipsCappedReports(t *testing.T) {
	karmic := &mockKarmic{failed: []service.FailedKarmicReport{
		{UserID: "u1", RetryCount: 0},
		{UserID: "u2", RetryCount: MaxKarmicRetries},
		{UserID: "u3", RetryCount: MaxKarmicRetries - 1},
	}}
	job := NewKarmicRetry(karmic, time.Hour, 10)

	require.NoError(t, job.RunOnce(context.Background()))
	assert.Equal(t, []string{"u1", "u3"}, karmic.regenerated)
}

func TestKarmicRetry_BatchAppliesAfterFiltering(t *testing.T) {
	karmic := &mockKarmic{failed: []service.FailedKarmicReport{
		{UserID: "capped", RetryCount: MaxKarmicRetries},
		{UserID: "u1"},
		{UserID: "u2"},
		{UserID: "u3"},
	}}
	job := NewKarmicRetry(karmic, time.Hour, 2)

	require.NoError(t, job.RunOnce(context.Background()))
	assert.Equal(t, []string{"u1", "u2"}, karmic.regenerated)
}

func TestKarmicRetry_ContinuesPastFailures(t *testing.T) {
	karmic := &mockKarmic{
		failed:   []service.FailedKarmicReport{{UserID: "u1"}, {UserID: "u2"}},
		regenErr: map[string]error{"u1": service.ErrOnboardingIncomplete},
	}
	job := NewKarmicRetry(karmic, time.Hour, 10)

	err := job.RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrOnboardingIncomplete)
	assert.Equal(t, []string{"u1", "u2"}, karmic.regenerated)
}

func TestKarmicRetry_ListError(t *testing.T) {
	karmic := &mockKarmic{listErr: errors.New("query failed")}
	job := NewKarmicRetry(karmic, time.Hour, 10)

	err := job.RunOnce(context.Background())

	assert.ErrorContains(t, err, "list failed karmic reports")
	assert.Empty(t, karmic.regenerated)
}

func TestKarmicRetry_StopCancelsInFlightPass(t *testing.T) {
	karmic := &mockKarmic{
		failed: []service.FailedKarmicReport{{UserID: "u1"}},
		block:  make(chan struct{}),
	}
	job := NewKarmicRetry(karmic, time.Hour, 10)
	job.initialDelay = 0

	job.Start()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while a pass was in flight")
	}
}
