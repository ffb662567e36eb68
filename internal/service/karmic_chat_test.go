package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/provider"
)

type mockKarmicChatRepo struct {
	mu    sync.Mutex
	chats map[string]*model.KarmicChat
}

func newMockKarmicChatRepo() *mockKarmicChatRepo {
	return &mockKarmicChatRepo{chats: make(map[string]*model.KarmicChat)}
}

func (m *mockKarmicChatRepo) GetKarmicChat(ctx context.Context, userID string) (*model.KarmicChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockKarmicChatRepo) UpdateKarmicChat(ctx context.Context, userID string, fn func(chat *model.KarmicChat, exists bool) error) (*model.KarmicChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cp model.KarmicChat
	c, exists := m.chats[userID]
	if exists {
		cp = *c
		cp.Messages = append([]model.ChatMessage(nil), c.Messages...)
	}
	if err := fn(&cp, exists); err != nil {
		return nil, err
	}
	m.chats[userID] = &cp
	out := cp
	return &out, nil
}

func newTestKarmicChat(llm LLM, reports *mockKarmicRepo) (*KarmicChatService, *mockKarmicChatRepo) {
	chats := newMockKarmicChatRepo()
	svc := NewKarmicChatService(KarmicChatServiceConfig{ChatRepo: chats, ReportRepo: reports, LLM: llm})
	svc.now = func() time.Time { return karmicNow }
	return svc, chats
}

func TestKarmicChatGet_SeedsWelcome(t *testing.T) {
	t.Parallel()
	svc, chats := newTestKarmicChat(replyLLM("answer"), newMockKarmicRepo())

	view, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, view.Messages, 1)
	assert.Equal(t, provider.RoleAssistant, view.Messages[0].Role)
	assert.Contains(t, view.Messages[0].Content, "**5 free questions**")
	assert.Equal(t, KarmicFreeQuestions, view.QuestionLimit)
	assert.Equal(t, KarmicFreeQuestions, view.QuestionsRemaining)
	assert.Equal(t, "u1", chats.chats["u1"].UserID)
}

func TestKarmicChatAsk_AppendsExchange(t *testing.T) {
	t.Parallel()
	reports := newMockKarmicRepo()
	reports.reports["u1"] = &model.KarmicReport{AIGeneratedReport: "Saturn rules your tenth house."}
	llm := replyLLM("Patience brings reward.")
	svc, _ := newTestKarmicChat(llm, reports)

	view, err := svc.Ask(context.Background(), "u1", model.KarmicQuestionRequest{Question: "  When will my career grow? "})
	require.NoError(t, err)

	require.Len(t, view.Messages, 3)
	assert.Equal(t, "When will my career grow?", view.Messages[1].Content)
	assert.Equal(t, "Patience brings reward.", view.Messages[2].Content)
	assert.Equal(t, 42, view.Messages[2].TokensUsed)
	assert.Equal(t, 1, view.QuestionsUsed)
	assert.Equal(t, KarmicFreeQuestions-1, view.QuestionsRemaining)

	req := llm.last()
	assert.Contains(t, req.Messages[0].Content, "Saturn rules your tenth house.")
	assert.Equal(t, provider.RoleUser, req.Messages[len(req.Messages)-1].Role)
}

func TestKarmicChatAsk_LimitReached(t *testing.T) {
	t.Parallel()
	llm := replyLLM("answer")
	svc, _ := newTestKarmicChat(llm, newMockKarmicRepo())
	ctx := context.Background()

	for i := range KarmicFreeQuestions {
		_, err := svc.Ask(ctx, "u1", model.KarmicQuestionRequest{Question: "question"})
		require.NoError(t, err, "question %d", i+1)
	}

	_, err := svc.Ask(ctx, "u1", model.KarmicQuestionRequest{Question: "one more"})
	assert.ErrorIs(t, err, ErrFreeQuestionsExhausted)
	assert.Equal(t, KarmicFreeQuestions, llm.calls())

	view, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, view.QuestionsRemaining)
}

func TestKarmicChatAsk_FailureStillCounts(t *testing.T) {
	t.Parallel()
	svc, _ := newTestKarmicChat(failingLLM(errors.New("upstream 500")), newMockKarmicRepo())

	view, err := svc.Ask(context.Background(), "u1", model.KarmicQuestionRequest{Question: "Why?"})
	require.NoError(t, err)

	assert.Equal(t, karmicChatFailure, view.Messages[len(view.Messages)-1].Content)
	assert.Equal(t, 1, view.QuestionsUsed)
}

func TestKarmicChatContext_TruncatesReport(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", karmicReportExcerpt+500)

	got := karmicChatContext(&model.KarmicReport{AIGeneratedReport: long})

	assert.Equal(t, karmicChatSystemPrompt+"\n\nThe user's karmic report:\n"+long[:karmicReportExcerpt], got)
	assert.Equal(t, karmicChatSystemPrompt, karmicChatContext(nil))
}

func TestKarmicChatContext_KeepsRunesWhole(t *testing.T) {
	t.Parallel()
	// "ॐ" is three bytes, so the cut falls inside a rune
	long := "x" + strings.Repeat("ॐ", karmicReportExcerpt)

	got := karmicChatContext(&model.KarmicReport{AIGeneratedReport: long})
	excerpt := strings.TrimPrefix(got, karmicChatSystemPrompt+"\n\nThe user's karmic report:\n")

	assert.True(t, utf8.ValidString(excerpt))
	assert.LessOrEqual(t, len(excerpt), karmicReportExcerpt)
	assert.Greater(t, len(excerpt), karmicReportExcerpt-utf8.UTFMax)
	assert.True(t, strings.HasPrefix(long, excerpt))
}

func TestTruncateUTF8(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"日本", 1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateUTF8(tt.in, tt.n), "truncateUTF8(%q, %d)", tt.in, tt.n)
	}
}
