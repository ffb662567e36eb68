package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/provider"
)

// Karmic chat limits
const (
	KarmicFreeQuestions = 5
	karmicChatHistory   = 10
	karmicChatMaxTokens = 1000
	karmicReportExcerpt = 6000
)

// KarmicChatRepository stores the karmic report chat
type KarmicChatRepository interface {
	GetKarmicChat(ctx context.Context, userID string) (*model.KarmicChat, error)
	// UpdateKarmicChat applies fn in a transaction. exists is false when no
	// chat is stored and the chat is zero valued.
	UpdateKarmicChat(ctx context.Context, userID string, fn func(chat *model.KarmicChat, exists bool) error) (*model.KarmicChat, error)
}

// KarmicChatService answers follow up questions about a karmic report
type KarmicChatService struct {
	chats   KarmicChatRepository
	reports KarmicRepository
	llm     LLM
	limit   int
	now     func() time.Time
}

// KarmicChatServiceConfig holds configuration for the karmic chat service
type KarmicChatServiceConfig struct {
	ChatRepo   KarmicChatRepository
	ReportRepo KarmicRepository
	LLM        LLM
	// FreeQuestions defaults to KarmicFreeQuestions
	FreeQuestions int
}

// NewKarmicChatService creates a new karmic chat service
func NewKarmicChatService(cfg KarmicChatServiceConfig) *KarmicChatService {
	limit := cfg.FreeQuestions
	if limit <= 0 {
		limit = KarmicFreeQuestions
	}
	return &KarmicChatService{
		chats:   cfg.ChatRepo,
		reports: cfg.ReportRepo,
		llm:     cfg.LLM,
		limit:   limit,
		now:     time.Now,
	}
}

// Get returns the chat, seeding the welcome message on first use
func (s *KarmicChatService) Get(ctx context.Context, userID string) (*model.KarmicChatView, error) {
	chat, err := s.chats.GetKarmicChat(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		chat, err = s.chats.UpdateKarmicChat(ctx, userID, func(c *model.KarmicChat, exists bool) error {
			if !exists {
				s.seed(c, userID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s.view(chat), nil
}

// Ask answers one question. A failed completion still consumes the
// question and stores the fallback answer.
func (s *KarmicChatService) Ask(ctx context.Context, userID string, req model.KarmicQuestionRequest) (*model.KarmicChatView, error) {
	question := strings.TrimSpace(req.Question)

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.QuestionsUsed >= s.limit {
		return nil, ErrFreeQuestionsExhausted
	}

	report, err := s.reports.GetReport(ctx, userID)
	if err != nil {
		return nil, err
	}

	messages := []provider.Message{{Role: provider.RoleSystem, Content: karmicChatContext(report)}}
	history := current.Messages
	if len(history) > karmicChatHistory {
		history = history[len(history)-karmicChatHistory:]
	}
	for _, m := range history {
		messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: question})

	answer := karmicChatFailure
	tokens := 0
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    messages,
		MaxTokens:   karmicChatMaxTokens,
		Temperature: karmicTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("karmic chat completion failed", "user_id", userID, "error", err)
	} else {
		answer, tokens = c.Text, c.TokensUsed
	}

	now := s.now().UTC()
	chat, err := s.chats.UpdateKarmicChat(ctx, userID, func(c *model.KarmicChat, exists bool) error {
		if !exists {
			s.seed(c, userID)
		}
		if c.QuestionsUsed >= s.limit {
			return ErrFreeQuestionsExhausted
		}
		asked, answered := now, now
		c.Messages = append(c.Messages,
			model.ChatMessage{Role: provider.RoleUser, Content: question, Timestamp: &asked},
			model.ChatMessage{Role: provider.RoleAssistant, Content: answer, Timestamp: &answered, TokensUsed: tokens},
		)
		c.QuestionsUsed++
		c.LastUpdated = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(chat), nil
}

func (s *KarmicChatService) seed(c *model.KarmicChat, userID string) {
	now := s.now().UTC()
	c.UserID = userID
	c.Messages = []model.ChatMessage{{Role: provider.RoleAssistant, Content: karmicWelcome(s.limit), Timestamp: &now}}
	c.QuestionsUsed = 0
	c.LastUpdated = now
}

func (s *KarmicChatService) view(c *model.KarmicChat) *model.KarmicChatView {
	remaining := s.limit - c.QuestionsUsed
	if remaining < 0 {
		remaining = 0
	}
	if c.Messages == nil {
		c.Messages = []model.ChatMessage{}
	}
	return &model.KarmicChatView{KarmicChat: *c, QuestionLimit: s.limit, QuestionsRemaining: remaining}
}

func karmicChatContext(report *model.KarmicReport) string {
	if report == nil || report.AIGeneratedReport == "" {
		return karmicChatSystemPrompt
	}
	return karmicChatSystemPrompt + "\n\nThe user's karmic report:\n" + truncateUTF8(report.AIGeneratedReport, karmicReportExcerpt)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
