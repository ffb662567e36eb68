package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
)

// OnboardingRepository stores onboarding answers and the soul profile
type OnboardingRepository interface {
	SetSoulPath(ctx context.Context, userID, soulPath string) error
	MergeResponse(ctx context.Context, userID, step string, answer model.OnboardingAnswer) error
	Get(ctx context.Context, userID string) (*model.Onboarding, error)
	MergeSoulAnswers(ctx context.Context, userID string, answers *model.SoulAnswers) error
	GetSoulAnswers(ctx context.Context, userID string) (*model.SoulAnswers, error)
	AppendQAPairs(ctx context.Context, userID string, pairs ...model.QAPair) error
	GetSoulPathAnswers(ctx context.Context, userID string) (*model.SoulPathAnswers, error)
}

// ChatAnswerRepository stores guide chat answers
type ChatAnswerRepository interface {
	AddAnswer(ctx context.Context, answer *model.ChatAnswer) error
	ListAnswers(ctx context.Context, userID string) ([]model.ChatAnswer, error)
}

// OnboardingService records the onboarding flow
type OnboardingService struct {
	repo    OnboardingRepository
	answers ChatAnswerRepository
	now     func() time.Time
}

// OnboardingServiceConfig holds configuration for the onboarding service
type OnboardingServiceConfig struct {
	OnboardingRepo OnboardingRepository
	AnswerRepo     ChatAnswerRepository
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(cfg OnboardingServiceConfig) *OnboardingService {
	return &OnboardingService{
		repo:    cfg.OnboardingRepo,
		answers: cfg.AnswerRepo,
		now:     time.Now,
	}
}

// SetSoulPath stores the chosen onboarding path
func (s *OnboardingService) SetSoulPath(ctx context.Context, userID string, req model.SoulPathRequest) (*model.Onboarding, error) {
	if err := s.repo.SetSoulPath(ctx, userID, strings.TrimSpace(req.SoulPath)); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// SaveAnswer stores the answer to one onboarding step
func (s *OnboardingService) SaveAnswer(ctx context.Context, userID string, req model.OnboardingAnswerRequest) (*model.Onboarding, error) {
	answer := model.OnboardingAnswer{Question: req.Question, Answer: req.Answer}
	if err := s.repo.MergeResponse(ctx, userID, req.Step, answer); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Get returns the soul path and every stored step answer
func (s *OnboardingService) Get(ctx context.Context, userID string) (*model.Onboarding, error) {
	o, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		o = &model.Onboarding{}
	}
	if o.Responses == nil {
		o.Responses = map[string]model.OnboardingAnswer{}
	}
	return o, nil
}

// AppendQA adds one entry to the soul path Q&A list
func (s *OnboardingService) AppendQA(ctx context.Context, userID string, req model.QAPairRequest) (*model.SoulPathAnswers, error) {
	pair := model.QAPair{
		Question:  req.Question,
		Answer:    req.Answer,
		Type:      req.Type,
		Analysis:  req.Analysis,
		Timestamp: s.now().UTC(),
	}
	if pair.Type == "" {
		pair.Type = model.QATypeAnswer
	}
	if err := s.repo.AppendQAPairs(ctx, userID, pair); err != nil {
		return nil, err
	}
	return s.QA(ctx, userID)
}

// QA returns the soul path Q&A list
func (s *OnboardingService) QA(ctx context.Context, userID string) (*model.SoulPathAnswers, error) {
	qa, err := s.repo.GetSoulPathAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if qa == nil {
		qa = &model.SoulPathAnswers{QAPairs: []model.QAPair{}}
	}
	return qa, nil
}

// AddChatAnswer stores a guide chat answer
func (s *OnboardingService) AddChatAnswer(ctx context.Context, userID string, req model.ChatAnswerRequest) (*model.ChatAnswer, error) {
	answer := &model.ChatAnswer{
		UserID:    userID,
		Question:  strings.TrimSpace(req.Question),
		Answer:    strings.TrimSpace(req.Answer),
		Timestamp: s.now().UTC(),
	}
	if err := s.answers.AddAnswer(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// ChatAnswers lists guide chat answers, oldest first
func (s *OnboardingService) ChatAnswers(ctx context.Context, userID string) ([]model.ChatAnswer, error) {
	list, err := s.answers.ListAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b model.ChatAnswer) int { return a.Timestamp.Compare(b.Timestamp) })
	if list == nil {
		list = []model.ChatAnswer{}
	}
	return list, nil
}
