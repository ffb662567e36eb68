package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
)

const (
	assessmentMaxTokens   = 1500
	assessmentTemperature = 0.7
)

// ReportRepository stores the generated reports and their inputs
type ReportRepository interface {
	SaveAura(ctx context.Context, userID string, answers *model.StoredAnswers, report *model.AuraReport) error
	GetAura(ctx context.Context, userID string) (*model.AuraReport, error)
	SaveVibrational(ctx context.Context, userID string, answers *model.StoredAnswers, report *model.VibrationalReport) error
	GetVibrational(ctx context.Context, userID string) (*model.VibrationalReport, error)
	SaveFaceReading(ctx context.Context, userID string, reading *model.FaceReading) error
	GetFaceReading(ctx context.Context, userID string) (*model.FaceReading, error)
	MergeResults(ctx context.Context, userID string, results *model.UserResults) error
	GetResults(ctx context.Context, userID string) (*model.UserResults, error)
	AddNumerology(ctx context.Context, userID string, report *model.NumerologyReport) (string, error)
	ListNumerology(ctx context.Context, userID string) ([]model.NumerologyReport, error)
}

// auraColors maps aura colour names to display hex codes
var auraColors = map[string]string{
	"red":       "#dc3545",
	"orange":    "#fd7e14",
	"yellow":    "#ffc107",
	"green":     "#198754",
	"blue":      "#0d6efd",
	"indigo":    "#6610f2",
	"violet":    "#6f42c1",
	"purple":    "#6f42c1",
	"white":     "#f8f9fa",
	"gold":      "#ffd700",
	"pink":      "#e91e63",
	"turquoise": "#17a2b8",
	"silver":    "#adb5bd",
}

const defaultAuraHex = "#6c757d"

// auraPalette is the fallback colour order
var auraPalette = []string{"Violet", "Blue", "Green", "Gold", "Indigo", "Turquoise", "Pink", "Yellow", "Orange", "Silver"}

// ColorHex returns the hex code of an aura colour. Compound names such as
// "Emerald Green" resolve by their last known colour word.
func ColorHex(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i := len(words) - 1; i >= 0; i-- {
		if hex, ok := auraColors[words[i]]; ok {
			return hex
		}
	}
	return defaultAuraHex
}

// vibrationLevels are checked top down by minimum frequency
var vibrationLevels = []struct {
	min   float64
	level string
	color string
}{
	{600, "Enlightened Consciousness", "#8b5cf6"},
	{500, "High Vibrational State", "#10b981"},
	{400, "Positive Energy Flow", "#f59e0b"},
	{300, "Balanced Vibration", "#f97316"},
	{0, "Transformative Phase", "#ef4444"},
}

// VibrationLevel returns the level name and display colour of a frequency
func VibrationLevel(frequency float64) (level, color string) {
	for _, l := range vibrationLevels {
		if frequency >= l.min {
			return l.level, l.color
		}
	}
	last := vibrationLevels[len(vibrationLevels)-1]
	return last.level, last.color
}

// AssessmentService generates the questionnaire based aura and vibrational
// reports
type AssessmentService struct {
	repo ReportRepository
	llm  LLM
	now  func() time.Time
}

// AssessmentServiceConfig holds configuration for the assessment service
type AssessmentServiceConfig struct {
	ReportRepo ReportRepository
	LLM        LLM
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(cfg AssessmentServiceConfig) *AssessmentService {
	return &AssessmentService{repo: cfg.ReportRepo, llm: cfg.LLM, now: time.Now}
}

type auraPayload struct {
	PrimaryColor      string              `json:"primaryColor"`
	SecondaryColors   []string            `json:"secondaryColors"`
	AuraScore         float64             `json:"auraScore"`
	PersonalityTraits string              `json:"personalityTraits"`
	EmotionalEnergy   string              `json:"emotionalEnergy"`
	Strengths         string              `json:"strengths"`
	AreasForGrowth    string              `json:"areasForGrowth"`
	Affirmation       string              `json:"affirmation"`
	ColorMeanings     model.ColorMeanings `json:"colorMeanings"`
}

const auraPrompt = `You are an expert aura reader and energy healer. Based on the user's answers below, determine their aura.

Respond ONLY with a JSON object of this shape:
{
  "primaryColor": "one colour name",
  "secondaryColors": ["colour", "colour"],
  "auraScore": 0-100,
  "personalityTraits": "2-3 sentences",
  "emotionalEnergy": "2-3 sentences",
  "strengths": "2-3 sentences",
  "areasForGrowth": "2-3 sentences",
  "affirmation": "one sentence",
  "colorMeanings": {"primary": "meaning of the primary colour", "secondary": "meaning of the secondary colours"}
}

Use colours from: Red, Orange, Yellow, Green, Blue, Indigo, Violet, Purple, White, Gold, Pink, Turquoise, Silver.

USER ANSWERS:
%s`

// GenerateAura stores the answers and the aura report derived from them
func (s *AssessmentService) GenerateAura(ctx context.Context, userID string, req model.AnswersRequest) (*model.AuraReport, error) {
	now := s.now().UTC()
	answers := &model.StoredAnswers{Answers: req.Answers, UpdatedAt: now}

	var p auraPayload
	aiGenerated := false
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: fmt.Sprintf(auraPrompt, formatAnswers(req.Answers))}},
		MaxTokens:   assessmentMaxTokens,
		Temperature: assessmentTemperature,
	})
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("aura generation failed, using fallback", "user_id", userID, "error", err)
	case parser.ExtractJSON(c.Text, &p) != nil || p.PrimaryColor == "":
		slog.Warn("aura response not parseable, using fallback", "user_id", userID)
		p = auraPayload{}
	default:
		aiGenerated = true
	}
	if !aiGenerated {
		p = fallbackAura(req.Answers)
	}

	report := &model.AuraReport{
		PrimaryColor:      p.PrimaryColor,
		PrimaryHex:        ColorHex(p.PrimaryColor),
		SecondaryColors:   nonNilStrings(p.SecondaryColors),
		AuraScore:         clamp(p.AuraScore, 0, 100),
		PersonalityTraits: p.PersonalityTraits,
		EmotionalEnergy:   p.EmotionalEnergy,
		Strengths:         p.Strengths,
		AreasForGrowth:    p.AreasForGrowth,
		Affirmation:       p.Affirmation,
		ColorMeanings:     p.ColorMeanings,
		AIGenerated:       aiGenerated,
		CreatedAt:         now,
	}
	report.SecondaryHex = make([]string, len(report.SecondaryColors))
	for i, color := range report.SecondaryColors {
		report.SecondaryHex[i] = ColorHex(color)
	}

	if err := s.repo.SaveAura(ctx, userID, answers, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetAura returns the stored aura report
func (s *AssessmentService) GetAura(ctx context.Context, userID string) (*model.AuraReport, error) {
	report, err := s.repo.GetAura(ctx, userID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

type vibrationalPayload struct {
	Frequency       float64  `json:"frequency"`
	Level           string   `json:"level"`
	Percentage      float64  `json:"percentage"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	Affirmation     string   `json:"affirmation"`
}

const vibrationalPrompt = `You are an expert in vibrational energy and consciousness levels. Based on the user's answers below, estimate their current vibrational frequency on a scale of 20 to 800 Hz.

Respond ONLY with a JSON object of this shape:
{
  "frequency": number,
  "level": "short level name",
  "percentage": 0-100,
  "analysis": "3-4 sentences",
  "recommendations": ["practice", "practice", "practice"],
  "affirmation": "one sentence"
}

USER ANSWERS:
%s`

// GenerateVibrational stores the answers and the vibrational report
func (s *AssessmentService) GenerateVibrational(ctx context.Context, userID string, req model.AnswersRequest) (*model.VibrationalReport, error) {
	now := s.now().UTC()
	answers := &model.StoredAnswers{Answers: req.Answers, UpdatedAt: now}

	var p vibrationalPayload
	aiGenerated := false
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: fmt.Sprintf(vibrationalPrompt, formatAnswers(req.Answers))}},
		MaxTokens:   assessmentMaxTokens,
		Temperature: assessmentTemperature,
	})
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("vibrational generation failed, using fallback", "user_id", userID, "error", err)
	case parser.ExtractJSON(c.Text, &p) != nil || p.Frequency <= 0:
		slog.Warn("vibrational response not parseable, using fallback", "user_id", userID)
		p = vibrationalPayload{}
	default:
		aiGenerated = true
	}
	if !aiGenerated {
		p = fallbackVibrational(req.Answers)
	}

	level, color := VibrationLevel(p.Frequency)
	if strings.TrimSpace(p.Level) != "" {
		level = p.Level
	}
	report := &model.VibrationalReport{
		Frequency:       p.Frequency,
		Level:           level,
		Color:           color,
		Percentage:      clamp(p.Percentage, 0, 100),
		Analysis:        p.Analysis,
		Recommendations: nonNilStrings(p.Recommendations),
		Affirmation:     p.Affirmation,
		AIGenerated:     aiGenerated,
		CreatedAt:       now,
	}
	if err := s.repo.SaveVibrational(ctx, userID, answers, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetVibrational returns the stored vibrational report
func (s *AssessmentService) GetVibrational(ctx context.Context, userID string) (*model.VibrationalReport, error) {
	report, err := s.repo.GetVibrational(ctx, userID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// formatAnswers renders answers as "question: answer" lines in key order
func formatAnswers(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, answers[k])
	}
	return b.String()
}

// answerSeed is a stable hash of the answers
func answerSeed(answers map[string]string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(formatAnswers(answers)))
	return h.Sum32()
}

func fallbackAura(answers map[string]string) auraPayload {
	seed := answerSeed(answers)
	n := uint32(len(auraPalette))
	primary := auraPalette[seed%n]
	secondary := []string{auraPalette[(seed/n+1)%n], auraPalette[(seed/n+4)%n]}
	if secondary[0] == primary {
		secondary[0] = auraPalette[(seed+2)%n]
	}
	return auraPayload{
		PrimaryColor:      primary,
		SecondaryColors:   secondary,
		AuraScore:         float64(65 + seed%30),
		PersonalityTraits: fmt.Sprintf("Your %s aura reflects a thoughtful, intuitive nature. You sense the energy of people and places around you.", strings.ToLower(primary)),
		EmotionalEnergy:   "Your emotional energy is steady with moments of deep sensitivity. Quiet time restores your balance.",
		Strengths:         "Empathy, intuition and a natural ability to bring calm to others.",
		AreasForGrowth:    "Setting clear boundaries and protecting your energy from draining environments.",
		Affirmation:       "I am radiant, balanced and aligned with my highest self.",
		ColorMeanings: model.ColorMeanings{
			Primary:   fmt.Sprintf("%s represents your core energy and the way you move through the world.", primary),
			Secondary: "Your secondary colours show the qualities you are developing right now.",
		},
	}
}

func fallbackVibrational(answers map[string]string) vibrationalPayload {
	seed := answerSeed(answers)
	frequency := float64(350 + seed%250)
	level, _ := VibrationLevel(frequency)
	return vibrationalPayload{
		Frequency:  frequency,
		Level:      level,
		Percentage: clamp(frequency/8, 0, 100),
		Analysis:   "Your answers point to an energy field in motion. You hold a solid base of positive intention, and small daily practices will lift your frequency further.",
		Recommendations: []string{
			"Spend ten minutes in silent meditation each morning",
			"Walk in nature and breathe deeply",
			"Keep a gratitude journal before sleep",
		},
		Affirmation: "My energy rises with every loving thought I choose.",
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
