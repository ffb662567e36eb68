package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Placeholders used when no provider data is available
const (
	NoVedicData      = "No Vedic astrology data available"
	NoNumerologyData = "No Western numerology data available"
)

// PlanetSummary is one planet of a Vedic chart
type PlanetSummary struct {
	Name      string `json:"name"`
	House     string `json:"house"`
	Sign      string `json:"sign"`
	IsBenefic bool   `json:"isBenefic"`
	IsMalefic bool   `json:"isMalefic"`
}

// HouseStrength is a house strength value with its category
type HouseStrength struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// HouseSummary is one house of a Vedic chart
type HouseSummary struct {
	Number         string         `json:"number"`
	Sign           string         `json:"sign"`
	Lord           string         `json:"lord"`
	PlanetsInHouse string         `json:"planetsInHouse"`
	Strength       *HouseStrength `json:"strength"`
}

// DashaSummary is the running planetary period
type DashaSummary struct {
	CurrentPlanet  string  `json:"currentPlanet"`
	YearsRemaining float64 `json:"yearsRemaining"`
}

// ChartStrengths counts houses per strength category
type ChartStrengths struct {
	Strong  int `json:"Strong"`
	Average int `json:"Average"`
	Weak    int `json:"Weak"`
}

// VedicSummary condenses formatted astrology text for a prompt
type VedicSummary struct {
	ChartType         string          `json:"chartType"`
	KeyPlanets        []PlanetSummary `json:"keyPlanets"`
	SignificantHouses []HouseSummary  `json:"significantHouses"`
	CurrentDasha      DashaSummary    `json:"currentDasha"`
	MajorAspects      []string        `json:"majorAspects"`
	ChartStrengths    ChartStrengths  `json:"chartStrengths"`
}

var (
	planetHeader  = regexp.MustCompile(`\*\*(Sun|Moon|Mars|Mercury|Jupiter|Venus|Saturn|Rahu|Ketu)\*\*:`)
	houseHeader   = regexp.MustCompile(`\*\*House(\d+)\*\*:`)
	occupiesRe    = regexp.MustCompile(`Occupies House: (House\d+)`)
	zodiacRe      = regexp.MustCompile(`Zodiac Sign: (\w+)`)
	beneficRe     = regexp.MustCompile(`Is Benefic: (True|False)`)
	maleficRe     = regexp.MustCompile(`Is Malefic: (True|False)`)
	houseSignRe   = regexp.MustCompile(`Sign: (\w+)`)
	houseLordRe   = regexp.MustCompile(`Lord of House: (\w+)`)
	inHouseRe     = regexp.MustCompile(`Planets In House: ([^-\n]*)`)
	strengthRe    = regexp.MustCompile(`House Strength: ([\d.]+) \((\w+)\)`)
	aspectingRe   = regexp.MustCompile(`Planets Aspecting: ([^-\n]*)`)
	mahadashaRe   = regexp.MustCompile(`(?:Current Mahadasha\*\*|Current Planet): (\w+)`)
	yearsLeftRe   = regexp.MustCompile(`Years Remaining: ([\d.]+)`)
	astrologyFail = "Error fetching astrological data"
)

// SummarizeVedic condenses the formatted astrology text into indented
// JSON. Empty or failed astrology text gives NoVedicData.
func SummarizeVedic(text string) string {
	if strings.TrimSpace(text) == "" || strings.HasPrefix(text, astrologyFail) {
		return NoVedicData
	}

	summary := VedicSummary{
		ChartType:         "Vedic/Jyotish",
		KeyPlanets:        keyPlanets(text),
		SignificantHouses: significantHouses(text),
		CurrentDasha:      dashaInfo(text),
		MajorAspects:      majorAspects(text),
		ChartStrengths:    chartStrengths(text),
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return NoVedicData
	}
	return string(out)
}

// blocks returns each header match with the text that follows it up to
// the next bold marker or heading
func blocks(text string, header *regexp.Regexp) [][]string {
	var out [][]string
	for _, loc := range header.FindAllStringSubmatchIndex(text, -1) {
		rest := text[loc[1]:]
		if i := strings.Index(rest, "**"); i >= 0 {
			rest = rest[:i]
		}
		if i := strings.Index(rest, "\n##"); i >= 0 {
			rest = rest[:i]
		}
		out = append(out, []string{text[loc[2]:loc[3]], rest})
	}
	return out
}

func capture(re *regexp.Regexp, s, def string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return def
}

func keyPlanets(text string) []PlanetSummary {
	planets := []PlanetSummary{}
	for _, b := range blocks(text, planetHeader) {
		body := b[1]
		planets = append(planets, PlanetSummary{
			Name:      b[0],
			House:     capture(occupiesRe, body, "Unknown"),
			Sign:      capture(zodiacRe, body, "Unknown"),
			IsBenefic: capture(beneficRe, body, "False") == "True",
			IsMalefic: capture(maleficRe, body, "False") == "True",
		})
	}
	return planets
}

// significantHouses keeps houses holding planets or rated Strong
func significantHouses(text string) []HouseSummary {
	houses := []HouseSummary{}
	for _, b := range blocks(text, houseHeader) {
		body := b[1]
		h := HouseSummary{
			Number:         b[0],
			Sign:           capture(houseSignRe, body, "Unknown"),
			Lord:           capture(houseLordRe, body, "Unknown"),
			PlanetsInHouse: "None",
		}
		if m := inHouseRe.FindStringSubmatch(body); m != nil {
			h.PlanetsInHouse = strings.TrimSpace(m[1])
		}
		if m := strengthRe.FindStringSubmatch(body); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				h.Strength = &HouseStrength{Value: v, Category: m[2]}
			}
		}

		if h.PlanetsInHouse != "None" || (h.Strength != nil && h.Strength.Category == "Strong") {
			houses = append(houses, h)
		}
	}
	return houses
}

func dashaInfo(text string) DashaSummary {
	d := DashaSummary{CurrentPlanet: "Unknown"}

	start := strings.Index(text, "## Current Dasha")
	if start < 0 {
		return d
	}
	section := text[start+2:]
	if end := strings.Index(section, "##"); end >= 0 {
		section = section[:end]
	}

	d.CurrentPlanet = capture(mahadashaRe, section, "Unknown")
	if m := yearsLeftRe.FindStringSubmatch(section); m != nil {
		d.YearsRemaining, _ = strconv.ParseFloat(m[1], 64)
	}
	return d
}

func majorAspects(text string) []string {
	aspects := []string{}
	for _, m := range aspectingRe.FindAllStringSubmatch(text, -1) {
		if a := strings.TrimSpace(m[1]); a != "" && a != "None" {
			aspects = append(aspects, a)
		}
	}
	return aspects
}

func chartStrengths(text string) ChartStrengths {
	var s ChartStrengths
	for _, m := range strengthRe.FindAllStringSubmatch(text, -1) {
		switch m[2] {
		case "Strong":
			s.Strong++
		case "Average":
			s.Average++
		case "Weak":
			s.Weak++
		}
	}
	return s
}

// NumerologySummary condenses a numerology bundle for a prompt
type NumerologySummary struct {
	SystemType   string            `json:"systemType"`
	CoreNumbers  map[string]any    `json:"coreNumbers"`
	Meanings     map[string]string `json:"meanings"`
	Challenge    any               `json:"challenge"`
	KarmicDebt   any               `json:"karmicDebt"`
	LuckyNumbers any               `json:"luckyNumbers"`
}

// SummarizeNumerology condenses a numerology bundle (keyed lifePath,
// destiny, heartDesire, personality, challenge, karmicDebt, luckyNumbers)
// into indented JSON. An empty bundle gives NoNumerologyData.
func SummarizeNumerology(data map[string]any) string {
	if len(data) == 0 {
		return NoNumerologyData
	}

	summary := NumerologySummary{
		SystemType: "Western Numerology",
		CoreNumbers: map[string]any{
			"lifePathNumber":    resultOf(data["lifePath"]),
			"destinyNumber":     resultOf(data["destiny"]),
			"soulUrgeNumber":    resultOf(data["heartDesire"]),
			"personalityNumber": resultOf(data["personality"]),
		},
		Meanings: map[string]string{
			"lifePath":    meaningOf(data["lifePath"]),
			"destiny":     meaningOf(data["destiny"]),
			"soulUrge":    meaningOf(data["heartDesire"]),
			"personality": meaningOf(data["personality"]),
		},
		Challenge:    resultOf(data["challenge"]),
		KarmicDebt:   resultOf(data["karmicDebt"]),
		LuckyNumbers: luckyNumbers(data["luckyNumbers"]),
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return NoNumerologyData
	}
	return string(out)
}

// resultOf returns the "result" (or "number") field of an endpoint answer,
// "N/A" for errors and missing values
func resultOf(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return "N/A"
		}
		return v
	}
	if _, failed := m["error"]; failed {
		return "N/A"
	}
	for _, key := range []string{"result", "number"} {
		if r, ok := m[key]; ok && r != nil && r != "" {
			return r
		}
	}
	return "N/A"
}

func meaningOf(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"meaning", "description"} {
		if s, ok := m[key].(string); ok {
			return s
		}
	}
	return ""
}

func luckyNumbers(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return []any{}
		}
		return v
	}
	if _, failed := m["error"]; failed {
		return []any{}
	}
	for _, key := range []string{"lucky_numbers", "luckyNumbers", "result"} {
		if r, ok := m[key]; ok && r != nil {
			return r
		}
	}
	return m
}
