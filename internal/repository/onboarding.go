package repository

import (
	"context"
	"time"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
)

// OnboardingRepository handles the onboarding documents: userOnboarding,
// onboardingResponses, YourSoulAnswers and userSoulPathAnswers
type OnboardingRepository struct {
	store database.Store
}

// NewOnboardingRepository creates a new onboarding repository
func NewOnboardingRepository(store database.Store) *OnboardingRepository {
	return &OnboardingRepository{store: store}
}

// SetSoulPath records the chosen soul path
func (r *OnboardingRepository) SetSoulPath(ctx context.Context, userID, soulPath string) error {
	return r.store.Merge(ctx, CollectionUserOnboarding, userID, database.Document{
		"soulPath":  soulPath,
		"updatedAt": database.FormatTime(time.Now()),
	})
}

// MergeResponse stores the answer of one onboarding step, keeping the others
func (r *OnboardingRepository) MergeResponse(ctx context.Context, userID, step string, answer model.OnboardingAnswer) error {
	fields, err := database.Encode(answer)
	if err != nil {
		return err
	}
	return r.store.Merge(ctx, CollectionOnboardingResponses, userID, database.Document{step: fields})
}

// Get combines the soul path and the step answers. It returns nil when
// neither document exists.
func (r *OnboardingRepository) Get(ctx context.Context, userID string) (*model.Onboarding, error) {
	path, err := getDoc[struct {
		SoulPath string `json:"soulPath"`
	}](ctx, r.store, CollectionUserOnboarding, userID)
	if err != nil {
		return nil, err
	}
	responses, err := getDoc[map[string]model.OnboardingAnswer](ctx, r.store, CollectionOnboardingResponses, userID)
	if err != nil {
		return nil, err
	}
	if path == nil && responses == nil {
		return nil, nil
	}

	o := &model.Onboarding{Responses: map[string]model.OnboardingAnswer{}}
	if path != nil {
		o.SoulPath = path.SoulPath
	}
	if responses != nil {
		o.Responses = *responses
	}
	return o, nil
}

// MergeSoulAnswers merges the soul profile. Answers merge key by key.
func (r *OnboardingRepository) MergeSoulAnswers(ctx context.Context, userID string, answers *model.SoulAnswers) error {
	return mergeDoc(ctx, r.store, CollectionSoulAnswers, userID, answers)
}

// GetSoulAnswers returns the soul profile
func (r *OnboardingRepository) GetSoulAnswers(ctx context.Context, userID string) (*model.SoulAnswers, error) {
	return getDoc[model.SoulAnswers](ctx, r.store, CollectionSoulAnswers, userID)
}

// AppendQAPairs appends to the soul path Q&A list in one transaction
func (r *OnboardingRepository) AppendQAPairs(ctx context.Context, userID string, pairs ...model.QAPair) error {
	if len(pairs) == 0 {
		return nil
	}
	_, err := transactDoc(ctx, r.store, CollectionSoulPathAnswers, userID, func(qa *model.SoulPathAnswers, _ bool) error {
		qa.QAPairs = append(qa.QAPairs, pairs...)
		last := pairs[len(pairs)-1].Timestamp
		if last.IsZero() {
			last = time.Now().UTC()
		}
		qa.LastUpdated = last
		return nil
	})
	return err
}

// GetSoulPathAnswers returns the soul path Q&A list
func (r *OnboardingRepository) GetSoulPathAnswers(ctx context.Context, userID string) (*model.SoulPathAnswers, error) {
	qa, err := getDoc[model.SoulPathAnswers](ctx, r.store, CollectionSoulPathAnswers, userID)
	if err != nil || qa == nil {
		return nil, err
	}
	if qa.QAPairs == nil {
		qa.QAPairs = []model.QAPair{}
	}
	return qa, nil
}
