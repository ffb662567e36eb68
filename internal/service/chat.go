package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/provider"
)

const (
	reportsChatMaxTokens = 800
	chatTemperature      = 0.7
	chatPenalty          = 0.1
	chatHistoryWindow    = 10
	guideMaxTokens       = 500
	dailyChatMaxTokens   = 600
)

const reportsChatSystemPrompt = "You are a compassionate spiritual AI guide for Eternal AI. You help users understand their spiritual assessments and provide personalized guidance. Always be encouraging, insightful, and practical. Connect different aspects of their spiritual profile when relevant. Be very concise in the answers - give short answers and be to the point. Tell them what they already know and what they need to do to improve."

const dailyChatSystemPrompt = `You are Eternal AI, a warm spiritual guide giving daily guidance. Today is %s.
The user's name is %s.%s
Answer questions about today's energies, practices and decisions. Be concise, practical and encouraging.`

// ChatService runs the report, daily and onboarding guide conversations
type ChatService struct {
	reports    ReportRepository
	karmic     KarmicRepository
	userRepo   UserRepository
	wallet     *WalletService
	llm        LLM
	dailyCost  int
	guideModel string
	now        func() time.Time
}

// ChatServiceConfig holds configuration for the chat service
type ChatServiceConfig struct {
	ReportRepo ReportRepository
	KarmicRepo KarmicRepository
	UserRepo   UserRepository
	Wallet     *WalletService
	LLM        LLM
	// DailyCost is the ether price of one daily chat message
	DailyCost int
	// GuideModel overrides the model of the onboarding guide
	GuideModel string
}

// NewChatService creates a new chat service
func NewChatService(cfg ChatServiceConfig) *ChatService {
	cost := cfg.DailyCost
	if cost <= 0 {
		cost = DefaultDailyChatCost
	}
	return &ChatService{
		reports:    cfg.ReportRepo,
		karmic:     cfg.KarmicRepo,
		userRepo:   cfg.UserRepo,
		wallet:     cfg.Wallet,
		llm:        cfg.LLM,
		dailyCost:  cost,
		guideModel: cfg.GuideModel,
		now:        time.Now,
	}
}

// ReportsChat answers a question using the user's completed reports as
// context
func (s *ChatService) ReportsChat(ctx context.Context, userID string, req model.ChatRequest) (*model.ChatReply, error) {
	aura, err := s.reports.GetAura(ctx, userID)
	if err != nil {
		return nil, err
	}
	vibrational, err := s.reports.GetVibrational(ctx, userID)
	if err != nil {
		return nil, err
	}
	karmic, err := s.karmic.GetReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	if aura == nil && vibrational == nil && karmic == nil {
		return nil, ErrNoReports
	}

	prompt := reportsContext(aura, vibrational, karmic) +
		fmt.Sprintf("\nUSER QUESTION: %q\n\n", req.Message) +
		"Please provide a helpful, spiritual, and personalized response based on the user's reports. Be encouraging, insightful, and practical. Connect different aspects of their reports when relevant. Keep responses conversational and warm, as if you're a wise spiritual guide.\n\nResponse:"

	messages := []provider.Message{{Role: provider.RoleSystem, Content: reportsChatSystemPrompt}}
	messages = append(messages, historyMessages(req.History)...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: prompt})

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:         messages,
		MaxTokens:        reportsChatMaxTokens,
		Temperature:      chatTemperature,
		PresencePenalty:  chatPenalty,
		FrequencyPenalty: chatPenalty,
	})
	if err != nil {
		return nil, err
	}
	return &model.ChatReply{Response: c.Text}, nil
}

func reportsContext(aura *model.AuraReport, vibrational *model.VibrationalReport, karmic *model.KarmicReport) string {
	var available []string
	if aura != nil {
		available = append(available, "Aura Report")
	}
	if vibrational != nil {
		available = append(available, "Vibrational Frequency Report")
	}
	if karmic != nil {
		available = append(available, "Karmic Report")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a spiritual AI guide with access to the user's completed spiritual assessments. Available reports: %s.\n\n", strings.Join(available, ", "))
	if aura != nil {
		fmt.Fprintf(&b, "AURA REPORT:\nPrimary Color: %s\nSecondary Colors: %s\nAura Score: %g%%\nPersonality Traits: %s\nEmotional Energy: %s\nStrengths: %s\nAreas for Growth: %s\nAffirmation: %s\n\n",
			aura.PrimaryColor, joinOrNone(aura.SecondaryColors), aura.AuraScore, aura.PersonalityTraits,
			aura.EmotionalEnergy, aura.Strengths, aura.AreasForGrowth, aura.Affirmation)
	}
	if vibrational != nil {
		fmt.Fprintf(&b, "VIBRATIONAL REPORT:\nFrequency: %g Hz\nLevel: %s\nPercentage: %g%%\nAnalysis: %s\nRecommendations: %s\nAffirmation: %s\n\n",
			vibrational.Frequency, vibrational.Level, vibrational.Percentage, vibrational.Analysis,
			joinOrNone(vibrational.Recommendations), vibrational.Affirmation)
	}
	if karmic != nil {
		fmt.Fprintf(&b, "KARMIC REPORT:\nBirth Place: %s\nLife Area: %s\nChallenge: %s\nJyotish Reading: %s\n\n",
			karmic.BirthPlace, karmic.LifeArea, challengeText(karmic.Challenge), karmic.JyotishReading)
	}
	return b.String()
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "None"
	}
	return strings.Join(s, ", ")
}

// historyMessages keeps the last turns of a client supplied history
func historyMessages(history []model.ChatMessage) []provider.Message {
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	out := make([]provider.Message, 0, len(history))
	for _, m := range history {
		if m.Role == provider.RoleSystem {
			continue
		}
		out = append(out, provider.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// DailyChat answers a daily guidance question. The message is paid for
// before the model is called and refunded when the call fails.
func (s *ChatService) DailyChat(ctx context.Context, userID string, req model.ChatRequest) (*model.ChatReply, error) {
	if s.llm == nil || !s.llm.Configured() {
		return nil, ErrLLMNotConfigured
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	wallet, err := s.wallet.Debit(ctx, userID, s.dailyCost)
	if err != nil {
		return nil, err
	}

	birth := ""
	if user.DateOfBirth != "" {
		birth = fmt.Sprintf(" They were born on %s.", user.DateOfBirth)
	}
	messages := []provider.Message{{
		Role:    provider.RoleSystem,
		Content: fmt.Sprintf(dailyChatSystemPrompt, s.now().UTC().Format("Monday, January 2, 2006"), user.DisplayName(), birth),
	}}
	messages = append(messages, historyMessages(req.History)...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: req.Message})

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    messages,
		MaxTokens:   dailyChatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		// the request context may already be done
		if rerr := s.wallet.Refund(context.WithoutCancel(ctx), userID, s.dailyCost); rerr != nil {
			slog.Error("daily chat refund failed", "user_id", userID, "amount", s.dailyCost, "error", rerr)
		}
		return nil, err
	}

	balance := wallet.Ethers
	return &model.ChatReply{Response: c.Text, Ethers: &balance}, nil
}

// GuideChat continues the onboarding guide conversation. Without a working
// model the scripted guide answers.
func (s *ChatService) GuideChat(ctx context.Context, req model.GuideChatRequest) (*model.ChatReply, error) {
	if s.llm == nil || !s.llm.Configured() {
		return &model.ChatReply{Response: GuideScriptReply(req.Messages)}, nil
	}

	messages := make([]provider.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = provider.Message{Role: m.Role, Content: m.Content}
	}
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Model:       s.guideModel,
		Messages:    messages,
		MaxTokens:   guideMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("guide chat failed, using script", "error", err)
		return &model.ChatReply{Response: GuideScriptReply(req.Messages)}, nil
	}
	return &model.ChatReply{Response: c.Text}, nil
}
