package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
)

const (
	defaultNumerologyBirthDate = "2000-01-01"
	numerologyMaxTokens        = 1500
	numerologyTemperature      = 0.7
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NumerologyService builds numerology reports and birth charts
type NumerologyService struct {
	reports    ReportRepository
	userRepo   UserRepository
	numerology NumerologyClient
	llm        LLM
	now        func() time.Time
}

// NumerologyServiceConfig holds configuration for the numerology service
type NumerologyServiceConfig struct {
	ReportRepo ReportRepository
	UserRepo   UserRepository
	Numerology NumerologyClient
	LLM        LLM
}

// NewNumerologyService creates a new numerology service
func NewNumerologyService(cfg NumerologyServiceConfig) *NumerologyService {
	return &NumerologyService{
		reports:    cfg.ReportRepo,
		userRepo:   cfg.UserRepo,
		numerology: cfg.Numerology,
		llm:        cfg.LLM,
		now:        time.Now,
	}
}

// Questions returns the follow up questions of the numerology flow
func (s *NumerologyService) Questions() []string {
	return slices.Clone(model.NumerologyQuestions)
}

// numerologySubject is the person a report is computed for
type numerologySubject struct {
	FirstName string
	LastName  string
	BirthDate string
}

// subjectFromAnswers reads name and birth date out of free form answers.
// Profile names fill what the answers leave out.
func subjectFromAnswers(answers []string, profileName string) numerologySubject {
	var sub numerologySubject
	for _, raw := range answers {
		ans := strings.TrimSpace(raw)
		words := strings.Fields(ans)
		switch {
		case isoDate.MatchString(ans):
			sub.BirthDate = ans
		case len(words) > 1:
			sub.FirstName = words[0]
			sub.LastName = strings.Join(words[1:], " ")
		case len(words) == 1 && sub.FirstName == "":
			sub.FirstName = words[0]
		}
	}

	profile := strings.Fields(profileName)
	if sub.FirstName == "" {
		sub.FirstName = "User"
		if len(profile) > 0 {
			sub.FirstName = profile[0]
		}
	}
	if sub.LastName == "" && len(profile) > 1 {
		sub.LastName = strings.Join(profile[1:], " ")
	}
	if sub.BirthDate == "" {
		sub.BirthDate = defaultNumerologyBirthDate
	}
	return sub
}

// Generate computes the numerology numbers for the answered name and birth
// date, interprets them and stores the report
func (s *NumerologyService) Generate(ctx context.Context, userID string, req model.NumerologyRequest) (*model.NumerologyReport, error) {
	if s.numerology == nil || !s.numerology.Configured() {
		return nil, ErrNumerologyNotConfigured
	}

	profileName := ""
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		profileName = user.FullName
		if profileName == "" {
			profileName = strings.TrimSpace(user.FirstName + " " + user.LastName)
		}
	}

	sub := subjectFromAnswers(req.Answers, profileName)
	birth, err := time.Parse("2006-01-02", sub.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, sub.BirthDate)
	}

	fullName := strings.TrimSpace(sub.FirstName + " " + sub.LastName)
	bundle, err := s.numerology.Bundle(ctx, provider.Person{FullName: fullName, BirthDate: birth})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, upstream("numerology", err)
	}
	if bundle.Failed() {
		return nil, upstream("numerology", fmt.Errorf("every numerology request failed"))
	}

	summary := parser.SummarizeNumerology(bundle)
	report := &model.NumerologyReport{
		FirstName:      sub.FirstName,
		LastName:       sub.LastName,
		BirthDate:      sub.BirthDate,
		Numbers:        bundle,
		Interpretation: summary,
		Answers:        nonNilStrings(req.Answers),
		CreatedAt:      s.now().UTC(),
	}

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are an expert Western numerologist. Interpret numerology numbers warmly and practically."},
			{Role: provider.RoleUser, Content: numerologyPrompt(fullName, sub.BirthDate, summary)},
		},
		MaxTokens:   numerologyMaxTokens,
		Temperature: numerologyTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("numerology interpretation failed, keeping summary", "user_id", userID, "error", err)
	} else {
		report.Interpretation = c.Text
		report.AIGenerated = true
	}

	id, err := s.reports.AddNumerology(ctx, userID, report)
	if err != nil {
		return nil, err
	}
	report.ID = id
	return report, nil
}

func numerologyPrompt(name, birthDate, summary string) string {
	return fmt.Sprintf(`Write a numerology reading for %s, born %s.

NUMEROLOGY DATA:
%s

Cover the life path, destiny, personality and heart's desire numbers, the current challenge and karmic lessons, and close with lucky numbers and practical guidance for the year ahead. Use markdown headings and keep it under 800 words.`, name, birthDate, summary)
}

// List returns the stored numerology reports, newest first
func (s *NumerologyService) List(ctx context.Context, userID string) ([]model.NumerologyReport, error) {
	reports, err := s.reports.ListNumerology(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(reports, func(a, b model.NumerologyReport) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if reports == nil {
		reports = []model.NumerologyReport{}
	}
	return reports, nil
}

// Chart renders a western birth chart SVG. Name and date default to the
// profile.
func (s *NumerologyService) Chart(ctx context.Context, userID string, req model.BirthChartRequest) (string, error) {
	if s.numerology == nil || !s.numerology.Configured() {
		return "", ErrNumerologyNotConfigured
	}

	name, date := strings.TrimSpace(req.Name), req.Date
	if name == "" || date == "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if user != nil {
			if name == "" {
				name = user.DisplayName()
			}
			if date == "" {
				date = user.DateOfBirth
			}
		}
	}
	if date == "" {
		return "", ErrProfileIncomplete
	}
	birth, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	svg, err := s.numerology.BirthChartSVG(ctx, provider.ChartRequest{
		Name:    name,
		Year:    birth.Year(),
		Month:   int(birth.Month()),
		Day:     birth.Day(),
		Hour:    req.Hour,
		Minute:  req.Minute,
		Lat:     req.Lat,
		Lng:     req.Lng,
		City:    req.City,
		Country: req.Country,
		TZ:      req.TZ,
		Lang:    req.Lang,
		Theme:   req.Theme,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", upstream("birth chart", err)
	}
	return svg, nil
}
