package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
)

// Karmic report generation settings
const (
	karmicMaxTokens   = 4000
	karmicTemperature = 0.7
	jyotishMaxTokens  = 2000

	defaultBirthTime      = "12:00"
	defaultBirthTimezone  = "+05:30"
	fallbackAstroTimezone = "+00:00"
)

// FailedKarmicReport identifies a stored report whose AI generation failed
type FailedKarmicReport struct {
	UserID     string
	RetryCount int
}

// KarmicRepository stores the karmic pipeline documents
type KarmicRepository interface {
	// SaveOnboarding writes lifePredictorOnboarding and vedastroData together
	SaveOnboarding(ctx context.Context, userID string, onboarding *model.LifePredictorOnboarding, raw *model.VedastroRecord) error
	GetOnboarding(ctx context.Context, userID string) (*model.LifePredictorOnboarding, error)
	// SaveReport writes karmicReports, lifePredictorReports and marks the
	// karmic result in userResults in one batch
	SaveReport(ctx context.Context, userID string, report *model.KarmicReport, summary *model.LifePredictorReport) error
	GetReport(ctx context.Context, userID string) (*model.KarmicReport, error)
	ListFailedReports(ctx context.Context, limit int) ([]FailedKarmicReport, error)
	// CountRetry bumps the retry count of a stored report
	CountRetry(ctx context.Context, userID string) error
}

// KarmicService runs the two step karmic report pipeline
type KarmicService struct {
	repo       KarmicRepository
	userRepo   UserRepository
	geocoder   Geocoder
	astrology  AstrologyClient
	numerology NumerologyClient
	llm        LLM
	now        func() time.Time
}

// KarmicServiceConfig holds configuration for the karmic service
type KarmicServiceConfig struct {
	Repo       KarmicRepository
	UserRepo   UserRepository
	Geocoder   Geocoder
	Astrology  AstrologyClient
	Numerology NumerologyClient
	LLM        LLM
}

// NewKarmicService creates a new karmic service
func NewKarmicService(cfg KarmicServiceConfig) *KarmicService {
	return &KarmicService{
		repo:       cfg.Repo,
		userRepo:   cfg.UserRepo,
		geocoder:   cfg.Geocoder,
		astrology:  cfg.Astrology,
		numerology: cfg.Numerology,
		llm:        cfg.LLM,
		now:        time.Now,
	}
}

// SubmitBirthPlace geocodes the birth place, fetches the astrology data and
// stores the onboarding for the report step
func (s *KarmicService) SubmitBirthPlace(ctx context.Context, userID string, req model.KarmicBirthRequest) (*model.LifePredictorOnboarding, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	first, middle, last := user.Names()
	if user.DateOfBirth == "" || first == "" {
		return nil, ErrProfileIncomplete
	}
	if strings.TrimSpace(middle) == "" {
		middle = " "
	}

	place := strings.TrimSpace(req.BirthPlace)
	loc, err := s.geocoder.Geocode(ctx, place)
	if err != nil {
		if errors.Is(err, provider.ErrGeocodeNoResult) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, place)
		}
		return nil, upstream("geocoding", err)
	}

	tob := orDefault(user.TimeOfBirth, defaultBirthTime)
	tz := orDefault(user.Timezone, defaultBirthTimezone)

	astro, err := s.astrology.Fetch(ctx, provider.BirthData{
		Location: place,
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Date:     user.DateOfBirth,
		Time:     tob,
		Timezone: tz,
	})
	if err != nil {
		return nil, upstream("astrology", err)
	}

	now := s.now().UTC()
	charts := chartImages(astro.Charts)
	onboarding := &model.LifePredictorOnboarding{
		BirthPlace:   place,
		Lat:          loc.Lat,
		Lng:          loc.Lng,
		VedastroData: astro.Text,
		ChartImages:  charts,
		DOB:          user.DateOfBirth,
		TOB:          tob,
		Timezone:     tz,
		FirstName:    first,
		MiddleName:   middle,
		LastName:     last,
		CompletedAt:  now,
	}
	raw := &model.VedastroRecord{
		AstrologyData: astro.Text,
		ChartImages:   charts,
		Failed:        astro.Failed,
		FetchedAt:     now,
	}
	if err := s.repo.SaveOnboarding(ctx, userID, onboarding, raw); err != nil {
		return nil, err
	}
	if astro.Failed {
		slog.Warn("astrology data unavailable for onboarding", "user_id", userID, "error", astro.Error)
	}
	return onboarding, nil
}

// Generate builds and stores the karmic report for a life area
func (s *KarmicService) Generate(ctx context.Context, userID string, req model.KarmicReportRequest) (*model.KarmicReport, error) {
	onboarding, err := s.onboarding(ctx, userID)
	if err != nil {
		return nil, err
	}
	report, err := s.build(ctx, onboarding, strings.TrimSpace(req.LifeArea))
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, onboarding, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Get returns the stored karmic report
func (s *KarmicService) Get(ctx context.Context, userID string) (*model.KarmicReport, error) {
	report, err := s.repo.GetReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// Regenerate rebuilds a stored report from its stored inputs, keeping the
// creation time. Every attempt counts, including ones that fail before the
// new report is saved, unless the caller gave up first.
func (s *KarmicService) Regenerate(ctx context.Context, userID string) (*model.KarmicReport, error) {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	report, err := s.rebuild(ctx, userID, existing)
	if err != nil {
		if ctx.Err() == nil {
			if cerr := s.repo.CountRetry(ctx, userID); cerr != nil {
				slog.WarnContext(ctx, "karmic retry not counted", "user_id", userID, "error", cerr)
			}
		}
		return nil, err
	}
	return report, nil
}

func (s *KarmicService) rebuild(ctx context.Context, userID string, existing *model.KarmicReport) (*model.KarmicReport, error) {
	onboarding, err := s.onboarding(ctx, userID)
	if err != nil {
		return nil, err
	}
	report, err := s.build(ctx, onboarding, existing.LifeArea)
	if err != nil {
		return nil, err
	}
	report.CreatedAt = existing.CreatedAt
	report.RetryCount = existing.RetryCount + 1
	if err := s.save(ctx, userID, onboarding, report); err != nil {
		return nil, err
	}
	return report, nil
}

// FailedReports lists reports whose AI generation failed. A limit of zero
// lists them all.
func (s *KarmicService) FailedReports(ctx context.Context, limit int) ([]FailedKarmicReport, error) {
	return s.repo.ListFailedReports(ctx, limit)
}

func (s *KarmicService) onboarding(ctx context.Context, userID string) (*model.LifePredictorOnboarding, error) {
	onboarding, err := s.repo.GetOnboarding(ctx, userID)
	if err != nil {
		return nil, err
	}
	if onboarding == nil || onboarding.DOB == "" || onboarding.TOB == "" {
		return nil, ErrOnboardingIncomplete
	}
	return onboarding, nil
}

// sources holds the settled results of the provider fan-out
type sources struct {
	astro    *provider.AstrologyResult
	astroErr error
	bundle   provider.Bundle
	numErr   error
}

func (s *KarmicService) fetchSources(ctx context.Context, o *model.LifePredictorOnboarding) sources {
	var src sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src.astro, src.astroErr = s.astrology.Fetch(gctx, provider.BirthData{
			Location: o.BirthPlace,
			Lat:      o.Lat,
			Lng:      o.Lng,
			Date:     o.DOB,
			Time:     o.TOB,
			Timezone: orDefault(o.Timezone, fallbackAstroTimezone),
		})
		return nil
	})
	g.Go(func() error {
		if s.numerology == nil || !s.numerology.Configured() {
			src.numErr = ErrNumerologyNotConfigured
			return nil
		}
		dob, err := time.Parse("2006-01-02", o.DOB)
		if err != nil {
			src.numErr = fmt.Errorf("invalid date of birth %q", o.DOB)
			return nil
		}
		src.bundle, src.numErr = s.numerology.Bundle(gctx, provider.Person{FullName: o.FullName(), BirthDate: dob})
		return nil
	})
	_ = g.Wait()
	return src
}

func (s *KarmicService) build(ctx context.Context, o *model.LifePredictorOnboarding, lifeArea string) (*model.KarmicReport, error) {
	src := s.fetchSources(ctx, o)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vedic := model.APIOutcome{}
	astroText := ""
	var charts model.ChartImages
	switch {
	case src.astroErr != nil:
		vedic.Error = src.astroErr.Error()
	case src.astro.Failed:
		vedic.Error = src.astro.Error
		astroText = src.astro.Text
	default:
		vedic.Success = true
		vedic.Data = src.astro.Text
		astroText = src.astro.Text
		if c := chartImages(src.astro.Charts); c != nil {
			charts = *c
		}
	}
	if astroText == "" {
		astroText = o.VedastroData
	}

	numerology := model.APIOutcome{}
	var challenge any
	switch {
	case src.numErr != nil:
		numerology.Error = src.numErr.Error()
	case src.bundle.Failed():
		numerology.Error = "all numerology requests failed"
		numerology.Data = src.bundle
	default:
		numerology.Success = true
		numerology.Data = src.bundle
		challenge = src.bundle[provider.KeyChallenge]
	}

	in := karmicInput{
		Name:          o.FullName(),
		DOB:           o.DOB,
		TOB:           o.TOB,
		BirthPlace:    o.BirthPlace,
		Timezone:      o.Timezone,
		LifeArea:      lifeArea,
		Challenge:     challengeText(challenge),
		AstrologyText: astroText,
		VedicSummary:  parser.NoVedicData,
		NumerologySum: parser.NoNumerologyData,
		HasVedic:      vedic.Success,
		HasNumerology: numerology.Success,
	}
	if vedic.Success {
		in.VedicSummary = parser.SummarizeVedic(astroText)
	}
	if numerology.Success {
		in.NumerologySum = parser.SummarizeNumerology(src.bundle)
	}

	now := s.now().UTC()
	report := &model.KarmicReport{
		BirthPlace:     o.BirthPlace,
		LifeArea:       lifeArea,
		Challenge:      challenge,
		JyotishReading: s.jyotish(ctx, in),
		ChartImages:    charts,
		BirthData: model.KarmicBirthData{
			Location: o.BirthPlace,
			DOB:      o.DOB,
			TOB:      o.TOB,
			Timezone: o.Timezone,
		},
		VedicAPI:    vedic,
		RapidAPI:    numerology,
		Lat:         o.Lat,
		Lng:         o.Lng,
		CreatedAt:   now,
		LastUpdated: now,
	}

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: karmicSystemPrompt(in)},
			{Role: provider.RoleUser, Content: karmicUserPrompt()},
		},
		MaxTokens:   karmicMaxTokens,
		Temperature: karmicTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("karmic report generation failed, using fallback", "error", err)
		report.AIGeneratedReport = fallbackKarmicReport(in, now)
		report.AIReportError = err.Error()
		report.AIReportMetadata = model.ReportMetadata{Fallback: true, GeneratedAt: now}
		return report, nil
	}

	report.AIGeneratedReport = c.Text
	report.AIReportSuccess = true
	report.AIReportMetadata = model.ReportMetadata{
		TokensUsed:  c.TokensUsed,
		Model:       c.Model,
		GeneratedAt: now,
	}
	return report, nil
}

// jyotish generates the Jyotish reading, falling back to a template
func (s *KarmicService) jyotish(ctx context.Context, in karmicInput) string {
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: jyotishPrompt(in)}},
		MaxTokens:   jyotishMaxTokens,
		Temperature: karmicTemperature,
	})
	if err != nil {
		slog.Warn("jyotish reading generation failed, using fallback", "error", err)
		return fallbackJyotish(in)
	}
	return c.Text
}

func (s *KarmicService) save(ctx context.Context, userID string, o *model.LifePredictorOnboarding, report *model.KarmicReport) error {
	summary := &model.LifePredictorReport{
		Report:         report.AIGeneratedReport,
		Timestamp:      report.LastUpdated,
		UserAnswers:    []string{orDefault(o.BirthPlace, "Not provided"), report.LifeArea},
		AIGenerated:    report.AIReportSuccess,
		ReportMetadata: report.AIReportMetadata,
	}
	return s.repo.SaveReport(ctx, userID, report, summary)
}

func chartImages(c *provider.ChartImages) *model.ChartImages {
	if c == nil {
		return nil
	}
	return &model.ChartImages{RasiD1: c.RasiD1, NavamshaD9: c.NavamshaD9}
}

// challengeText renders a numerology challenge result for a prompt
func challengeText(v any) string {
	switch c := v.(type) {
	case nil:
		return "Not specified"
	case string:
		return c
	case map[string]any:
		if r, ok := c["result"]; ok {
			return fmt.Sprint(r)
		}
	}
	return fmt.Sprint(v)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
