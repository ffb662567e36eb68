package parser

import (
	"regexp"
	"strconv"
)

// VibrationalStat is the "Vibrational Frequency: 72% 528 Hz (Love)" line
type VibrationalStat struct {
	Percent float64 `json:"percent"`
	Hz      string  `json:"hz"`
	Label   string  `json:"label"`
}

// BodyStat is the "Body Score: 64% 7.2 (Balanced)" line
type BodyStat struct {
	Percent float64 `json:"percent"`
	Value   string  `json:"value"`
	Label   string  `json:"label"`
}

// SoulStats are the headline numbers of a soul report. Items missing from
// the text stay nil.
type SoulStats struct {
	Vibrational   *VibrationalStat `json:"vibrational"`
	Body          *BodyStat        `json:"body"`
	Overall       *float64         `json:"overall"`
	SoulScore     *float64         `json:"soulScore"`
	BodyFrequency *float64         `json:"bodyFreq"`
}

var (
	vibrationalRe = regexp.MustCompile(`(?i)Vibrational Frequency:\s*(\d+)%\s*([\d.]+)\s*Hz\s*\(([^)]+)\)`)
	bodyScoreRe   = regexp.MustCompile(`(?i)Body Score:\s*(\d+)%\s*([\d.]+)\s*\(([^)]+)\)`)
	overallRe     = regexp.MustCompile(`(?i)Overall Percentage:\s*([\d.]+)%`)
	soulScoreRe   = regexp.MustCompile(`(?i)Your Soul Score:\s*([\d.]+)%`)
	bodyFreqRe    = regexp.MustCompile(`(?i)Body Frequency:\s*([\d.]+)\s*Hz`)
)

// ExtractSoulStats reads the headline numbers out of a soul report
func ExtractSoulStats(text string) SoulStats {
	var s SoulStats

	if m := vibrationalRe.FindStringSubmatch(text); m != nil {
		if p, ok := number(m[1]); ok {
			s.Vibrational = &VibrationalStat{Percent: p, Hz: m[2], Label: m[3]}
		}
	}
	if m := bodyScoreRe.FindStringSubmatch(text); m != nil {
		if p, ok := number(m[1]); ok {
			s.Body = &BodyStat{Percent: p, Value: m[2], Label: m[3]}
		}
	}
	s.Overall = firstNumber(overallRe, text)
	s.SoulScore = firstNumber(soulScoreRe, text)
	s.BodyFrequency = firstNumber(bodyFreqRe, text)
	return s
}

func firstNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, ok := number(m[1])
	if !ok {
		return nil
	}
	return &n
}

func number(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}
