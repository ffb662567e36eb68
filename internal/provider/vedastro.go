package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultVedastroURL is the Vedastro calculation API root
const DefaultVedastroURL = "https://api.vedastro.org/api/Calculate"

const (
	ayanamsa         = "RAMAN"
	sectionSeparator = "------------------------------"
)

// BirthData identifies a birth moment for astrology calculations.
// Date is DD/MM/YYYY (YYYY-MM-DD is converted), Time is HH:MM and Timezone
// is an offset such as +05:30. Location is a place name or "lat,lng";
// when empty and coordinates are set, the coordinates are used.
type BirthData struct {
	Location string
	Lat      float64
	Lng      float64
	Date     string
	Time     string
	Timezone string
}

// ChartImages holds the chart image URLs of a reading
type ChartImages struct {
	RasiD1     string `json:"rasiD1"`
	NavamshaD9 string `json:"navamshaD9"`
}

// AstrologyResult is the formatted astrology data handed to the LLM
type AstrologyResult struct {
	Text   string       `json:"astrologyData"`
	Charts *ChartImages `json:"chartImages"`
	// Failed is set when no data section could be fetched
	Failed bool   `json:"-"`
	Error  string `json:"-"`
}

// AstrologyConfig configures an Astrology client
type AstrologyConfig struct {
	BaseURL string
	Timeout time.Duration
	Limiter *RateLimiter
}

// Astrology fetches Vedic astrology data from Vedastro
type Astrology struct {
	client  *resty.Client
	baseURL string
	limiter *RateLimiter
}

// NewAstrology creates a Vedastro client
func NewAstrology(cfg AstrologyConfig) *Astrology {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultVedastroURL
	}
	return &Astrology{
		client:  newRestClient("", cfg.Timeout),
		baseURL: base,
		limiter: cfg.Limiter,
	}
}

// VedastroDate converts YYYY-MM-DD into DD/MM/YYYY and leaves other
// formats untouched
func VedastroDate(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("02/01/2006")
	}
	return date
}

// birthPath renders "Location/{loc}/Time/{HH%3AMM}/{DD%2FMM%2FYYYY}/{tz}"
func (b BirthData) birthPath() string {
	loc := b.Location
	if loc == "" && (b.Lat != 0 || b.Lng != 0) {
		loc = fmt.Sprintf("%.4f,%.4f", b.Lat, b.Lng)
	}
	tz := strings.Replace(b.Timezone, ":", "%3A", 1)
	tz = strings.Replace(tz, "+", "%2B", 1)

	return fmt.Sprintf("Location/%s/Time/%s/%s/%s",
		url.PathEscape(loc),
		strings.Replace(b.Time, ":", "%3A", 1),
		strings.ReplaceAll(VedastroDate(b.Date), "/", "%2F"),
		tz,
	)
}

func (b BirthData) validate() error {
	if strings.TrimSpace(b.Date) == "" || strings.TrimSpace(b.Time) == "" {
		return fmt.Errorf("%w: date and time of birth are required", ErrInvalidInput)
	}
	if b.Location == "" && b.Lat == 0 && b.Lng == 0 {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if b.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	return nil
}

// ChartURLs returns the Rasi D1 and Navamsha D9 chart image URLs
func (a *Astrology) ChartURLs(b BirthData) ChartImages {
	birth := b.birthPath()
	return ChartImages{
		RasiD1:     fmt.Sprintf("%s/SouthIndianChart/%s/ChartType/RasiD1/Ayanamsa/%s", a.baseURL, birth, ayanamsa),
		NavamshaD9: fmt.Sprintf("%s/SouthIndianChart/%s/ChartType/NavamshaD9/Ayanamsa/%s", a.baseURL, birth, ayanamsa),
	}
}

type vedastroResponse struct {
	Status  string          `json:"Status"`
	Payload json.RawMessage `json:"Payload"`
}

func (a *Astrology) call(ctx context.Context, path string, payload any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := a.client.R().
		SetContext(ctx).
		Get(a.baseURL + "/" + path)
	if err != nil {
		return fmt.Errorf("vedastro request: %w", err)
	}
	if err := checkResponse("vedastro", resp, a.limiter); err != nil {
		return err
	}

	var out vedastroResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("vedastro decode: %w", err)
	}
	if out.Status != "Pass" || len(out.Payload) == 0 || string(out.Payload) == "null" {
		return fmt.Errorf("vedastro %s: status %q", strings.SplitN(path, "/", 2)[0], out.Status)
	}
	if err := json.Unmarshal(out.Payload, payload); err != nil {
		return fmt.Errorf("vedastro payload: %w", err)
	}
	return nil
}

type astrologySection struct {
	title string
	fetch func(ctx context.Context, birth string) ([]string, error)
}

// Fetch gathers house, planet, prediction and dasha data and formats it as
// markdown-like text. Sections that fail carry an inline note. When every
// section fails the result is an error text with no chart URLs.
func (a *Astrology) Fetch(ctx context.Context, b BirthData) (*AstrologyResult, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	birth := b.birthPath()
	sections := []astrologySection{
		{title: "House Data", fetch: a.houseData},
		{title: "Planet Data", fetch: a.planetData},
		{title: "Horoscope Predictions", fetch: a.predictions},
		{title: "Current Dasha Period", fetch: a.currentDasha},
	}

	lines := make([][]string, len(sections))
	errs := make([]error, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sections {
		g.Go(func() error {
			lines[i], errs[i] = s.fetch(gctx, birth)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(sections) {
		msg := errs[0].Error()
		return &AstrologyResult{
			Text:   "Error fetching astrological data: " + msg,
			Failed: true,
			Error:  msg,
		}, nil
	}

	charts := a.ChartURLs(b)
	out := []string{
		"## Chart Image Status (Rasi D1)",
		"Rasi D1 Chart URL: " + charts.RasiD1,
		sectionSeparator,
		"## Chart Image Status (Navamsha D9)",
		"Navamsha D9 Chart URL: " + charts.NavamshaD9,
		sectionSeparator,
	}
	for i, s := range sections {
		out = append(out, "\n## "+s.title)
		if errs[i] != nil {
			out = append(out, s.title+" not available")
		} else {
			out = append(out, lines[i]...)
		}
		out = append(out, sectionSeparator)
	}

	return &AstrologyResult{
		Text:   strings.Join(out, "\n"),
		Charts: &charts,
	}, nil
}

func (a *Astrology) houseData(ctx context.Context, birth string) ([]string, error) {
	var payload struct {
		AllHouseData []map[string]map[string]any `json:"AllHouseData"`
	}
	if err := a.call(ctx, "AllHouseData/HouseName/All/"+birth+"/Ayanamsa/"+ayanamsa, &payload); err != nil {
		return nil, err
	}

	var lines []string
	for _, house := range payload.AllHouseData {
		for _, name := range sortedKeys(house) {
			d := house[name]
			lines = append(lines,
				fmt.Sprintf("**%s**:", name),
				"   - Sign: "+nested(d, "HouseRasiSign", "Name"),
				fmt.Sprintf("   - Constellation: %s (Lord: %s)", text(d, "HouseConstellation"), nested(d, "HouseConstellationLord", "Name")),
				"   - Lord of House: "+nested(d, "LordOfHouse", "Name"),
				"   - Planets In House: "+joined(d, "PlanetsInHouse"),
				"   - Planets Aspecting House: "+joined(d, "PlanetsAspectingHouse"),
				fmt.Sprintf("   - House Strength: %s (%s)", text(d, "HouseStrength"), text(d, "HouseStrengthCategory")),
				"",
			)
		}
	}
	return lines, nil
}

func (a *Astrology) planetData(ctx context.Context, birth string) ([]string, error) {
	var payload struct {
		AllPlanetData []map[string]map[string]any `json:"AllPlanetData"`
	}
	if err := a.call(ctx, "AllPlanetData/PlanetName/All/"+birth+"/Ayanamsa/"+ayanamsa, &payload); err != nil {
		return nil, err
	}

	var lines []string
	for _, planet := range payload.AllPlanetData {
		for _, name := range sortedKeys(planet) {
			d := planet[name]
			lines = append(lines,
				fmt.Sprintf("**%s**:", name),
				"   - Occupies House: "+text(d, "HousePlanetOccupiesBasedOnSign"),
				"   - Zodiac Sign: "+nested(d, "PlanetRasiD1Sign", "Name"),
				fmt.Sprintf("   - Constellation: %s (Lord: %s)", text(d, "PlanetConstellation"), nested(d, "PlanetLordOfConstellation", "Name")),
				"   - Avasta (State): "+text(d, "PlanetAvasta"),
				"   - Is Benefic: "+text(d, "IsPlanetBenefic"),
				"   - Is Malefic: "+text(d, "IsPlanetMalefic"),
				"   - Planets in Conjunction: "+joined(d, "PlanetsInConjunction"),
				"   - Planets Aspecting: "+joined(d, "PlanetsAspectingPlanet"),
				"   - Dasa Effects (Ishta Kashta): "+text(d, "PlanetDasaEffectsBasedOnIshtaKashta"),
				"",
			)
		}
	}
	return lines, nil
}

func (a *Astrology) predictions(ctx context.Context, birth string) ([]string, error) {
	var payload []map[string]any
	if err := a.call(ctx, "HoroscopePredictions/"+birth+"/Ayanamsa/"+ayanamsa, &payload); err != nil {
		return nil, err
	}

	var lines []string
	for _, p := range payload {
		lines = append(lines,
			"**Yoga**: "+text(p, "Name"),
			"   - Description: "+text(p, "Description"),
		)
		if body, ok := p["RelatedBody"].(map[string]any); ok {
			lines = append(lines,
				"   - Related Planets: "+joined(body, "Planets"),
				"   - Related Houses: "+joined(body, "Houses"),
			)
		}
		tags := joined(p, "Tags")
		if tags == "None" {
			tags = ""
		}
		lines = append(lines, "   - Tags: "+tags, "")
	}
	return lines, nil
}

func (a *Astrology) currentDasha(ctx context.Context, birth string) ([]string, error) {
	var payload map[string]any
	if err := a.call(ctx, "CurrentDasha/"+birth+"/Ayanamsa/"+ayanamsa, &payload); err != nil {
		return nil, err
	}
	return []string{
		"**Current Mahadasha**: " + text(payload, "PlanetName"),
		fmt.Sprintf("   - Period: %s to %s", text(payload, "StartTime"), text(payload, "EndTime")),
		"   - Years Remaining: " + text(payload, "YearsLeft"),
	}, nil
}

func text(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return "N/A"
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return "N/A"
		}
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

func nested(m map[string]any, key, field string) string {
	inner, ok := m[key].(map[string]any)
	if !ok {
		return "N/A"
	}
	return text(inner, field)
}

func joined(m map[string]any, key string) string {
	items, ok := m[key].([]any)
	if !ok || len(items) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || item == "" {
			continue
		}
		parts = append(parts, fmt.Sprint(item))
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}
