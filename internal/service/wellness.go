package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
)

const (
	wellnessMaxTokens   = 3500
	wellnessTemperature = 0.8
)

const wellnessSystemPrompt = "You are Eternal AI, an expert spiritual advisor generating highly personalized wellness reports with specific insights and varied scores. Follow the exact format requested with clear section breaks and be extremely specific to each individual."

// wellnessGuides describe each section of the comprehensive report. The
// palm section has two variants depending on whether a palm was uploaded.
var wellnessGuides = map[string]string{
	"NUMEROLOGY WITH DATE OF BIRTH":   "Extract the date of birth and calculate the Life Path Number. Include challenging years, the current numerological cycle and specific influences for this year.",
	"ETERNAL ARCHETYPE PROFILE":       "Determine ONE archetype (Ancient Healer, Cosmic Teacher, Intuitive Mystic, Earth Guardian, Quantum Seeker, Light Warrior, Soul Alchemist, Dream Walker, Energy Weaver). Describe spiritual gifts, shadow aspects and evolutionary path. Quote user responses.",
	"VIBRATIONAL FREQUENCY DASHBOARD": "Assign a specific frequency (432Hz, 528Hz, 741Hz, 852Hz, 963Hz) based on user energy. Analyze energy patterns from mood and stress responses and mention when energy peaks and dips.",
	"AURA AND CHAKRA HEALTH":          "Identify 2-3 specific aura colors. Detail which chakras are blocked or open. Mention crystals, essential oils and practices. Reference actual health and stress responses.",
	"RELATIONSHIP RESONANCE MAP":      "Analyze relationship patterns, love language and attachment style. Mention specific challenges and gifts. Quote relationship responses.",
	"MENTAL EMOTIONAL HEALTH":         "Assess stress, anxiety and mood responses. Identify emotional patterns, triggers and coping mechanisms, and recommend specific practices.",
	"SPIRITUAL ALIGNMENT SCORE":       "Evaluate spiritual practice responses, connection to higher self, intuition and life purpose clarity. Quote spiritual responses.",
	"HEALTH INSIGHTS":                 "Based on sleep, diet and exercise answers, give specific recommendations for water, steps, sleep time, supplements, herbs and breathwork.",
}

const (
	palmGuideUploaded = "Provide a detailed palm reading with specific descriptions of the life, heart, head and fate lines, the mounts and any special markings."
	palmGuideMissing  = "Explain that a detailed palm reading requires an uploaded palm image and describe what it would reveal. Mention using the correct hand based on the gender stated in the responses."
)

// wellnessScoreRanges are the [min, span) score ranges per section
var wellnessScoreRanges = map[string][2]int{
	"NUMEROLOGY WITH DATE OF BIRTH":   {35, 60},
	"ETERNAL ARCHETYPE PROFILE":       {45, 50},
	"VIBRATIONAL FREQUENCY DASHBOARD": {38, 55},
	"AURA AND CHAKRA HEALTH":          {42, 53},
	"RELATIONSHIP RESONANCE MAP":      {50, 40},
	"MENTAL EMOTIONAL HEALTH":         {55, 40},
	"SPIRITUAL ALIGNMENT SCORE":       {40, 55},
	"PALM READINGS":                   {45, 45},
	"HEALTH INSIGHTS":                 {48, 47},
}

// wellnessMultipliers spread the seed differently per section
var wellnessMultipliers = []int{1, 7, 11, 13, 17, 19, 23, 29, 31}

// WellnessService generates the comprehensive wellness report and the soul
// report
type WellnessService struct {
	reports    ReportRepository
	onboarding OnboardingRepository
	answers    ChatAnswerRepository
	llm        LLM
	now        func() time.Time
}

// WellnessServiceConfig holds configuration for the wellness service
type WellnessServiceConfig struct {
	ReportRepo     ReportRepository
	OnboardingRepo OnboardingRepository
	AnswerRepo     ChatAnswerRepository
	LLM            LLM
}

// NewWellnessService creates a new wellness service
func NewWellnessService(cfg WellnessServiceConfig) *WellnessService {
	return &WellnessService{
		reports:    cfg.ReportRepo,
		onboarding: cfg.OnboardingRepo,
		answers:    cfg.AnswerRepo,
		llm:        cfg.LLM,
		now:        time.Now,
	}
}

// GenerateWellness builds the wellness report from the guide conversation.
// Without a usable model a deterministic report is derived from the answers.
func (s *WellnessService) GenerateWellness(ctx context.Context, userID string, req model.WellnessRequest) (*model.WellnessResult, error) {
	responses := req.UserResponses()
	now := s.now().UTC()

	text := ""
	aiGenerated := false
	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: wellnessSystemPrompt},
			{Role: provider.RoleUser, Content: wellnessPrompt(responses, req.PalmUploaded, now)},
		},
		MaxTokens:   wellnessMaxTokens,
		Temperature: wellnessTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("wellness generation failed, using generated mock", "user_id", userID, "error", err)
		text = MockWellnessReport(responses, req.PalmUploaded)
	} else {
		text, aiGenerated = c.Text, true
	}

	result := &model.WellnessResult{
		WellnessReport: parser.ProcessWellnessText(text),
		Responses:      nonNilStrings(responses),
		AIGenerated:    aiGenerated,
		CreatedAt:      now,
	}
	if err := s.reports.MergeResults(ctx, userID, &model.UserResults{Wellness: result}); err != nil {
		return nil, err
	}
	return result, nil
}

// Results returns the stored report results of a user
func (s *WellnessService) Results(ctx context.Context, userID string) (*model.UserResults, error) {
	results, err := s.reports.GetResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		return &model.UserResults{}, nil
	}
	return results, nil
}

func wellnessPrompt(responses []string, palmUploaded bool, now time.Time) string {
	palm := "No palm image provided"
	palmGuide := palmGuideMissing
	if palmUploaded {
		palm, palmGuide = "Uploaded for detailed palm reading", palmGuideUploaded
	}

	var b strings.Builder
	b.WriteString("You are Eternal AI, an advanced spiritual advisor with deep expertise in metaphysical sciences. ")
	b.WriteString("Create a HIGHLY PERSONALIZED spiritual wellness report based on the unique responses below. ")
	b.WriteString("Each section must be distinctly different with varied scores and specific details.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS FOR UNIQUENESS:\n")
	b.WriteString("- Vary scores significantly (some 35-50, some 60-75, some 80-95)\n")
	b.WriteString("- Include specific numbers, dates, colors, frequencies and measurements\n")
	b.WriteString("- Reference the user's actual words directly in quotes\n\n")
	fmt.Fprintf(&b, "USER PROFILE SEED: %d\n", wellnessSeed(responses))
	fmt.Fprintf(&b, "ANALYSIS DATE: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "PALM IMAGE: %s\n\n", palm)
	fmt.Fprintf(&b, "USER RESPONSES: %s\n\n", strings.Join(responses, " || "))
	fmt.Fprintf(&b, "Generate EXACTLY these %d sections:\n\n", len(parser.WellnessSections))
	for _, heading := range parser.WellnessSections {
		guide := wellnessGuides[heading]
		if heading == "PALM READINGS" {
			guide = palmGuide
		}
		r := wellnessScoreRanges[heading]
		fmt.Fprintf(&b, "%s\n[%s]\nScore: [Generate varied score %d-%d]/100\n\n", heading, guide, r[0], r[0]+r[1])
	}
	b.WriteString("Be extremely specific, personalized and spiritually insightful. Make scores realistically varied.")
	return b.String()
}

// wellnessSeed is a stable number derived from the user's answers
func wellnessSeed(responses []string) int {
	text := strings.ToLower(strings.Join(responses, ""))
	vowels := 0
	for _, r := range text {
		if strings.ContainsRune("aeiou", r) {
			vowels++
		}
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	return int(h.Sum32()%1000) + len(text)%100 + vowels%50
}

// wellnessAdjustment shifts every section score by keywords in the answers
func wellnessAdjustment(text string) int {
	adj := 0
	if strings.Contains(text, "meditat") || strings.Contains(text, "spiritual") {
		adj += 10
	}
	if strings.Contains(text, "stress") || strings.Contains(text, "anxiety") {
		adj -= 5
	}
	if strings.Contains(text, "happy") || strings.Contains(text, "peaceful") {
		adj += 8
	}
	if strings.Contains(text, "exercise") || strings.Contains(text, "active") {
		adj += 6
	}
	if strings.Contains(text, "sleep") && strings.Contains(text, "well") {
		adj += 5
	}
	return adj
}

// WellnessScores returns the deterministic section scores for a set of
// answers, each between 35 and 95
func WellnessScores(responses []string) map[string]int {
	seed := wellnessSeed(responses)
	adj := wellnessAdjustment(strings.ToLower(strings.Join(responses, " ")))
	scores := make(map[string]int, len(parser.WellnessSections))
	for i, heading := range parser.WellnessSections {
		r := wellnessScoreRanges[heading]
		base := r[0] + (seed*wellnessMultipliers[i])%r[1]
		scores[heading] = min(95, max(35, base+adj))
	}
	return scores
}

var mockWellnessBodies = map[string]string{
	"NUMEROLOGY WITH DATE OF BIRTH":   "Your birth numbers point to a cycle of renewal this year. The coming months favour finishing what you started and planting seeds for the next nine-year cycle.",
	"ETERNAL ARCHETYPE PROFILE":       "Your answers reveal the Intuitive Mystic. You sense what others miss and heal through presence. Your shadow is withdrawing when the world feels loud.",
	"VIBRATIONAL FREQUENCY DASHBOARD": "Your energy resonates near 528Hz. It peaks in the early morning and dips in the late afternoon, so protect your mornings for the work that matters most.",
	"AURA AND CHAKRA HEALTH":          "Your aura carries turquoise and amber tones. The heart chakra is open while the throat chakra asks for more honest expression. Amethyst and lavender support your balance.",
	"RELATIONSHIP RESONANCE MAP":      "You give through quality time and words of affirmation. You attract people who need healing, so choose the relationships that also nourish you.",
	"MENTAL EMOTIONAL HEALTH":         "Your emotional patterns show deep sensitivity. Journaling each evening and loving-kindness meditation will help you release what you absorb from others.",
	"SPIRITUAL ALIGNMENT SCORE":       "Your connection to your higher self is growing. Trust the quiet nudges you receive and give your intuition a daily moment of silence.",
	"HEALTH INSIGHTS":                 "Drink 2.3L of water daily, walk 8,000 steps and sleep by 10:30 PM. Try the 4-7-8 breath before bed and keep caffeine before 2 PM.",
}

const (
	mockPalmUploaded = "Your life line is long and clear, showing steady vitality. The heart line curves gently toward the index finger, a sign of warm and idealistic love."
	mockPalmMissing  = "A detailed palm reading needs a clear photo of your palm. Upload the right palm for males or the left palm for females to reveal your life, heart and fate lines."
)

// MockWellnessReport renders a complete nine section report with
// deterministic scores for the given answers
func MockWellnessReport(responses []string, palmUploaded bool) string {
	scores := WellnessScores(responses)
	var b strings.Builder
	for _, heading := range parser.WellnessSections {
		body := mockWellnessBodies[heading]
		if heading == "PALM READINGS" {
			body = mockPalmMissing
			if palmUploaded {
				body = mockPalmUploaded
			}
		}
		fmt.Fprintf(&b, "%s\n%s\nScore: %d/100\n\n", heading, body, scores[heading])
	}
	return strings.TrimSpace(b.String())
}
