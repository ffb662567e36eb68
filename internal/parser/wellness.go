package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// ExtractSection returns the trimmed text after the first case-insensitive
// occurrence of start, up to end when end is non-empty and found. It
// returns "" when start is missing.
func ExtractSection(text, start, end string) string {
	startRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(start) + `[:\s]*`)
	loc := startRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	rest := text[loc[1]:]
	if end != "" {
		endRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(end) + `[:\s]*`)
		if e := endRe.FindStringIndex(rest); e != nil {
			rest = rest[:e[0]]
		}
	}
	return strings.TrimSpace(rest)
}

// WellnessSections are the headings of the comprehensive wellness report,
// in order
var WellnessSections = []string{
	"NUMEROLOGY WITH DATE OF BIRTH",
	"ETERNAL ARCHETYPE PROFILE",
	"VIBRATIONAL FREQUENCY DASHBOARD",
	"AURA AND CHAKRA HEALTH",
	"RELATIONSHIP RESONANCE MAP",
	"MENTAL EMOTIONAL HEALTH",
	"SPIRITUAL ALIGNMENT SCORE",
	"PALM READINGS",
	"HEALTH INSIGHTS",
}

// WellnessReport is the sectioned wellness reading stored for a user
type WellnessReport struct {
	AuraColors       string         `json:"auraColors"`
	Personality      string         `json:"personality"`
	SpiritualProfile string         `json:"spiritualProfile"`
	EnergyBoosters   string         `json:"energyBoosters"`
	EnergyDrains     string         `json:"energyDrains"`
	Alignment        string         `json:"alignment"`
	DailyPractice    string         `json:"dailyPractice"`
	Scores           map[string]int `json:"scores,omitempty"`
	FullReading      string         `json:"fullReading"`
}

type sectionRule struct {
	start, end       string
	altStart, altEnd string
	fallback         string
}

var (
	auraRule = sectionRule{"AURA AND CHAKRA HEALTH", "RELATIONSHIP", "Aura Colors", "Personality",
		"Your aura shows beautiful emerald green with violet overtones, indicating healing abilities and spiritual connection."}
	personalityRule = sectionRule{"ETERNAL ARCHETYPE PROFILE", "VIBRATIONAL", "Personality", "Spiritual Profile",
		"You demonstrate a thoughtful and introspective personality with strong spiritual inclinations."}
	spiritualRule = sectionRule{"SPIRITUAL ALIGNMENT SCORE", "PALM", "Spiritual Profile", "Energy Boosters",
		"Your spiritual profile shows excellent alignment with higher purpose and natural healing abilities."}
	boostersRule = sectionRule{"VIBRATIONAL FREQUENCY DASHBOARD", "AURA", "Energy Boosters", "Energy Drains",
		"Nature connection, meditation, creative expression, meaningful relationships, and spiritual practices boost your energy."}
	drainsRule = sectionRule{"MENTAL EMOTIONAL HEALTH", "SPIRITUAL", "Energy Drains", "Alignment",
		"Negative environments, energy vampires, overthinking, and lack of boundaries drain your sensitive energy."}
	alignmentRule = sectionRule{"HEALTH INSIGHTS", "", "Alignment", "Daily Practice",
		"Maintain alignment through daily spiritual practices, energy protection, and conscious boundary setting."}
)

// DefaultDailyPractice is used when the report has no daily practice section
const DefaultDailyPractice = "Begin each day with meditation and end with gratitude journaling. Practice energy clearing and protection visualizations regularly."

func (r sectionRule) apply(text string) string {
	if s := ExtractSection(text, r.start, r.end); s != "" {
		return s
	}
	if s := ExtractSection(text, r.altStart, r.altEnd); s != "" {
		return s
	}
	return r.fallback
}

// ProcessWellnessText maps a comprehensive report (or the older seven
// section layout) onto a WellnessReport
func ProcessWellnessText(text string) WellnessReport {
	daily := ExtractSection(text, "Daily Practice", "")
	if daily == "" {
		daily = DefaultDailyPractice
	}

	return WellnessReport{
		AuraColors:       auraRule.apply(text),
		Personality:      personalityRule.apply(text),
		SpiritualProfile: spiritualRule.apply(text),
		EnergyBoosters:   boostersRule.apply(text),
		EnergyDrains:     drainsRule.apply(text),
		Alignment:        alignmentRule.apply(text),
		DailyPractice:    daily,
		Scores:           ExtractScores(text),
		FullReading:      text,
	}
}

var (
	scoreLine       = regexp.MustCompile(`(?i)Score:\s*(\d{1,3})\s*/\s*100`)
	sectionHeadings = headingPatterns(WellnessSections)
)

func headingPatterns(headings []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(headings))
	for i, h := range headings {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(h))
	}
	return out
}

// ExtractScores reads the "Score: N/100" line of every wellness section
// present in text, keyed by section heading
func ExtractScores(text string) map[string]int {
	scores := make(map[string]int)

	for i, heading := range WellnessSections {
		loc := sectionHeadings[i].FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if i+1 < len(sectionHeadings) {
			if next := sectionHeadings[i+1].FindStringIndex(body); next != nil {
				body = body[:next[0]]
			}
		}
		if m := scoreLine.FindStringSubmatch(body); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n <= 100 {
				scores[heading] = n
			}
		}
	}

	if len(scores) == 0 {
		return nil
	}
	return scores
}
