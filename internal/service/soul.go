package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
)

const (
	soulMaxTokens   = 4000
	soulTemperature = 0.8
)

// SoulSections are the sections of the Eternal Soul Report
var SoulSections = []string{
	"Vibrational Frequency",
	"Body Energy",
	"Your Soul Percentage",
	"Numerology Overview",
	"Eternal Archetype Profile",
	"Aura & Chakra Health",
	"Relationship Resonance Map",
	"Astrocartography Insights",
	"Karmic Load & Dharmic Alignment",
	"Integration & Biometric Sync",
	"Vibrational Analysis of Foods & Fabrics",
	"Soul Report Summary",
}

const soulSummaryExample = `Vibrational Frequency: 72% 528 Hz (Love)
Body Score: 80% 7.5 (Good)
Overall Percentage: 80%
Your Soul Score: 85%
Body Frequency: 500 Hz`

// GenerateSoul builds the soul report from every answer the user has given
// in onboarding and the guide chat
func (s *WellnessService) GenerateSoul(ctx context.Context, userID string) (*model.SoulReport, error) {
	userData, err := s.soulUserData(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userData == "" {
		return nil, ErrNoAnswers
	}

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: soulPrompt(userData)}},
		MaxTokens:   soulMaxTokens,
		Temperature: soulTemperature,
	})
	if err != nil {
		return nil, err
	}

	report := &model.SoulReport{
		Report:      c.Text,
		Stats:       parser.ExtractSoulStats(c.Text),
		AIGenerated: true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.reports.MergeResults(ctx, userID, &model.UserResults{Soul: report}); err != nil {
		return nil, err
	}
	return report, nil
}

// soulUserData renders the soul path, the Q&A pairs with image analyses and
// the guide chat answers. It is empty when the user answered nothing.
func (s *WellnessService) soulUserData(ctx context.Context, userID string) (string, error) {
	var b strings.Builder

	path, err := s.onboarding.GetSoulPathAnswers(ctx, userID)
	if err != nil {
		return "", err
	}
	n := 0
	if path != nil {
		for _, item := range path.QAPairs {
			switch {
			case item.Type == model.QATypeFace:
				fmt.Fprintf(&b, "Face Photo Analysis: %s\n", item.Analysis)
			case item.Type == model.QATypePalm:
				fmt.Fprintf(&b, "Palm Photo Analysis: %s\n", item.Analysis)
			case item.Question != "" && item.Answer != "":
				n++
				fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", n, item.Question, n, item.Answer)
			}
		}
	}

	chats, err := s.answers.ListAnswers(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, a := range chats {
		n++
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", n, a.Question, n, a.Answer)
	}
	if b.Len() == 0 {
		return "", nil
	}

	onboarding, err := s.onboarding.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if onboarding != nil && onboarding.SoulPath != "" {
		return "Soul Path: " + onboarding.SoulPath + "\n" + b.String(), nil
	}
	return b.String(), nil
}

func soulPrompt(userData string) string {
	return fmt.Sprintf("Based on the following user answers and image analyses, generate a full Eternal Soul Report with these sections:\n- %s\n\n"+
		"Use emotionally resonant language and mystical symbolism (chakras, stars, planets, frequencies). Start each section with '## [Section Name]'.\n\n"+
		"User Data:\n%s\n"+
		"After your detailed report, please add a summary block like this, with values calculated from your analysis:\n\n%s",
		strings.Join(SoulSections, "\n- "), userData, soulSummaryExample)
}
