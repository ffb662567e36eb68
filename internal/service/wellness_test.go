package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
)

func newTestWellness(llm LLM) (*WellnessService, *mockReportRepo, *mockOnboardingRepo, *mockAnswerRepo) {
	reports := newMockReportRepo()
	onboarding := newMockOnboardingRepo()
	answers := &mockAnswerRepo{}
	svc := NewWellnessService(WellnessServiceConfig{
		ReportRepo:     reports,
		OnboardingRepo: onboarding,
		AnswerRepo:     answers,
		LLM:            llm,
	})
	svc.now = func() time.Time { return karmicNow }
	return svc, reports, onboarding, answers
}

var wellnessConversation = model.WellnessRequest{Conversation: []model.ChatMessage{
	{Role: "assistant", Content: "Hello! Could you tell me your name and gender?"},
	{Role: "user", Content: "I'm Meera, female"},
	{Role: "assistant", Content: "When were you born?"},
	{Role: "user", Content: "12/04/1992, I meditate and sleep well"},
}}

// ============================================================================
// Score Tests
// ============================================================================

func TestWellnessScores_RangeAndDeterminism(t *testing.T) {
	t.Parallel()
	inputs := [][]string{
		nil,
		{"I feel happy and peaceful"},
		{"lots of stress and anxiety", "no exercise"},
		{"I meditate, exercise daily, sleep well, feel happy and spiritual"},
	}
	for _, responses := range inputs {
		scores := WellnessScores(responses)
		require.Len(t, scores, len(parser.WellnessSections))
		for heading, score := range scores {
			assert.GreaterOrEqual(t, score, 35, "%s for %q", heading, responses)
			assert.LessOrEqual(t, score, 95, "%s for %q", heading, responses)
		}
		if diff := cmp.Diff(scores, WellnessScores(responses)); diff != "" {
			t.Errorf("scores not deterministic (-first +second):\n%s", diff)
		}
	}
}

func TestWellnessAdjustment(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, wellnessAdjustment("nothing notable"))
	assert.Equal(t, 10, wellnessAdjustment("i meditate"))
	assert.Equal(t, -5, wellnessAdjustment("work stress"))
	assert.Equal(t, 10+8+6+5, wellnessAdjustment("spiritual, happy, active, sleep well"))
}

func TestMockWellnessReport_ParsesBack(t *testing.T) {
	t.Parallel()
	responses := []string{"I'm Meera, female", "I meditate"}

	text := MockWellnessReport(responses, false)

	for _, heading := range parser.WellnessSections {
		assert.Contains(t, text, heading)
	}
	assert.Contains(t, text, mockPalmMissing)
	if diff := cmp.Diff(WellnessScores(responses), parser.ExtractScores(text)); diff != "" {
		t.Errorf("parsed scores mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, MockWellnessReport(responses, true), mockPalmUploaded)
}

// ============================================================================
// GenerateWellness Tests
// ============================================================================

func TestGenerateWellness_StoresModelReport(t *testing.T) {
	t.Parallel()
	llm := replyLLM("NUMEROLOGY WITH DATE OF BIRTH\nLife path 7.\nScore: 81/100")
	svc, reports, _, _ := newTestWellness(llm)

	result, err := svc.GenerateWellness(context.Background(), "u1", wellnessConversation)
	require.NoError(t, err)

	assert.True(t, result.AIGenerated)
	assert.Equal(t, 81, result.Scores["NUMEROLOGY WITH DATE OF BIRTH"])
	assert.Equal(t, []string{"I'm Meera, female", "12/04/1992, I meditate and sleep well"}, result.Responses)
	assert.Same(t, result, reports.results["u1"].Wellness)
	assert.Equal(t, wellnessMaxTokens, llm.last().MaxTokens)
}

func TestGenerateWellness_FallsBackToMock(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestWellness(failingLLM(errors.New("timeout")))

	result, err := svc.GenerateWellness(context.Background(), "u1", wellnessConversation)
	require.NoError(t, err)

	assert.False(t, result.AIGenerated)
	assert.Len(t, result.Scores, len(parser.WellnessSections))
	assert.Equal(t, MockWellnessReport(wellnessConversation.UserResponses(), false), result.FullReading)
}

func TestWellnessResults_EmptyWhenMissing(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestWellness(nil)

	results, err := svc.Results(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, &model.UserResults{}, results)
}

// ============================================================================
// GenerateSoul Tests
// ============================================================================

func TestGenerateSoul_NoAnswers(t *testing.T) {
	t.Parallel()
	llm := replyLLM("report")
	svc, _, _, _ := newTestWellness(llm)

	_, err := svc.GenerateSoul(context.Background(), "u1")

	assert.ErrorIs(t, err, ErrNoAnswers)
	assert.Zero(t, llm.calls())
}

func TestGenerateSoul_CollectsAllAnswers(t *testing.T) {
	t.Parallel()
	llm := replyLLM("## Soul Report Summary\nYour Soul Score: 85%")
	svc, reports, onboarding, answers := newTestWellness(llm)
	ctx := context.Background()

	require.NoError(t, onboarding.SetSoulPath(ctx, "u1", "Healer"))
	require.NoError(t, onboarding.AppendQAPairs(ctx, "u1",
		model.QAPair{Question: "What calms you?", Answer: "The ocean", Type: model.QATypeAnswer},
		model.QAPair{Type: model.QATypeFace, Analysis: "Face shape: Oval"},
		model.QAPair{Type: model.QATypePalm, Analysis: "Hand type: Water"},
	))
	require.NoError(t, answers.AddAnswer(ctx, &model.ChatAnswer{UserID: "u1", Question: "Favourite season?", Answer: "Monsoon"}))

	report, err := svc.GenerateSoul(ctx, "u1")
	require.NoError(t, err)

	assert.True(t, report.AIGenerated)
	assert.Same(t, report, reports.results["u1"].Soul)

	prompt := llm.last().Messages[0].Content
	assert.Contains(t, prompt, "Soul Path: Healer\n")
	assert.Contains(t, prompt, "Q1: What calms you?\nA1: The ocean\n")
	assert.Contains(t, prompt, "Face Photo Analysis: Face shape: Oval\n")
	assert.Contains(t, prompt, "Palm Photo Analysis: Hand type: Water\n")
	assert.Contains(t, prompt, "Q2: Favourite season?\nA2: Monsoon\n")
	for _, section := range SoulSections {
		assert.Contains(t, prompt, section)
	}
}

func TestGenerateSoul_RequiresModel(t *testing.T) {
	t.Parallel()
	svc, _, _, answers := newTestWellness(nil)
	require.NoError(t, answers.AddAnswer(context.Background(), &model.ChatAnswer{UserID: "u1", Question: "Q", Answer: "A"}))

	_, err := svc.GenerateSoul(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}
