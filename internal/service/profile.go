package service

import (
	"context"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/storage"
)

// ProfileService manages user profiles, soul answers and activity stats
type ProfileService struct {
	userRepo       UserRepository
	onboardingRepo OnboardingRepository
	blobs          BlobStore
	maxImageBytes  int
	now            func() time.Time
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	UserRepo       UserRepository
	OnboardingRepo OnboardingRepository
	Blobs          BlobStore
	MaxImageBytes  int
}

// NewProfileService creates a new profile service
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	return &ProfileService{
		userRepo:       cfg.UserRepo,
		onboardingRepo: cfg.OnboardingRepo,
		blobs:          cfg.Blobs,
		maxImageBytes:  cfg.MaxImageBytes,
		now:            time.Now,
	}
}

// Signup records the profile of an externally authenticated user. Email
// and full name overwrite the stored values when given.
func (s *ProfileService) Signup(ctx context.Context, userID string, req model.SignupRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if email != "" && !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	now := s.now().UTC()
	return s.userRepo.Upsert(ctx, userID, func(u *model.User, exists bool) error {
		if !exists {
			u.CreatedAt = now
		}
		if email != "" {
			u.Email = email
		}
		if name := strings.TrimSpace(req.FullName); name != "" {
			u.FullName = name
		}
		return nil
	})
}

// EnsureUser creates the users document of a verified identity the first
// time it is seen and leaves existing documents untouched
func (s *ProfileService) EnsureUser(ctx context.Context, userID, email, name string) (*model.User, error) {
	existing, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.Signup(ctx, userID, model.SignupRequest{Email: email, FullName: name})
}

// Get returns the profile of a user
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update applies the non-nil fields of req to the profile
func (s *ProfileService) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error) {
	now := s.now().UTC()
	return s.userRepo.Update(ctx, userID, func(u *model.User) error {
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = strings.TrimSpace(*src)
			}
		}
		set(&u.FullName, req.FullName)
		set(&u.FirstName, req.FirstName)
		set(&u.MiddleName, req.MiddleName)
		set(&u.LastName, req.LastName)
		set(&u.DateOfBirth, req.DateOfBirth)
		set(&u.TimeOfBirth, req.TimeOfBirth)
		set(&u.Timezone, req.Timezone)
		set(&u.PlaceOfBirth, req.PlaceOfBirth)
		u.UpdatedAt = &now
		return nil
	})
}

// SaveSoulAnswers stores the soul profile. A profile image data URL is
// uploaded first and replaced by its download URL.
func (s *ProfileService) SaveSoulAnswers(ctx context.Context, userID string, req model.SoulAnswersRequest) (*model.SoulAnswers, error) {
	answers := &model.SoulAnswers{
		Name:      strings.TrimSpace(req.Name),
		Quote:     strings.TrimSpace(req.Quote),
		Answers:   req.Answers,
		UpdatedAt: s.now().UTC(),
	}

	var imagePath string
	if req.ProfileImage != "" {
		path, url, err := uploadImage(ctx, s.blobs, req.ProfileImage, storage.PrefixProfile, userID, s.maxImageBytes, s.now)
		if err != nil {
			return nil, err
		}
		imagePath = path
		answers.ProfileImage = url
	}

	if err := s.onboardingRepo.MergeSoulAnswers(ctx, userID, answers); err != nil {
		discardImages(ctx, s.blobs, imagePath)
		return nil, err
	}
	return s.onboardingRepo.GetSoulAnswers(ctx, userID)
}

// GetSoulAnswers returns the soul profile
func (s *ProfileService) GetSoulAnswers(ctx context.Context, userID string) (*model.SoulAnswers, error) {
	answers, err := s.onboardingRepo.GetSoulAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		return nil, ErrReportNotFound
	}
	return answers, nil
}

// Stats returns the dashboard numbers of a user
func (s *ProfileService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := user.Stats()
	return &stats, nil
}

// RecordLogin applies a login to the activity counters and returns the
// resulting stats
func (s *ProfileService) RecordLogin(ctx context.Context, userID string) (*model.UserStats, error) {
	now := s.now()
	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.RecordLogin(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := user.Stats()
	return &stats, nil
}
