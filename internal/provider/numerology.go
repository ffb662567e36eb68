package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// RapidAPI numerology defaults
const (
	DefaultNumerologyURL  = "https://the-numerology-api.p.rapidapi.com"
	DefaultNumerologyHost = "the-numerology-api.p.rapidapi.com"
)

const bundleConcurrency = 4

// NumerologyConfig configures a Numerology client
type NumerologyConfig struct {
	BaseURL string
	Host    string
	APIKey  string
	Timeout time.Duration
	Limiter *RateLimiter
}

// Numerology calls the RapidAPI numerology endpoints
type Numerology struct {
	client  *resty.Client
	limiter *RateLimiter
	key     string
}

// NewNumerology creates a numerology client
func NewNumerology(cfg NumerologyConfig) *Numerology {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultNumerologyURL
	}
	host := cfg.Host
	if host == "" {
		host = DefaultNumerologyHost
	}

	client := newRestClient(strings.TrimRight(base, "/"), cfg.Timeout).
		SetHeader("x-rapidapi-host", host).
		SetHeader("x-rapidapi-key", cfg.APIKey)

	return &Numerology{client: client, limiter: cfg.Limiter, key: cfg.APIKey}
}

// Configured reports whether an API key is set
func (n *Numerology) Configured() bool {
	return n.key != ""
}

func (n *Numerology) get(ctx context.Context, endpoint string, params map[string]string) (any, error) {
	if !n.Configured() {
		return nil, fmt.Errorf("numerology: %w", ErrNotConfigured)
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("numerology %s: %w", endpoint, err)
	}
	if err := checkResponse("numerology", resp, n.limiter); err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("numerology %s decode: %w", endpoint, err)
	}
	return out, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

// blank replaces an empty name part with a single space, which the API
// accepts where it rejects an empty parameter
func blank(s string) string {
	if strings.TrimSpace(s) == "" {
		return " "
	}
	return s
}

// LifePath returns the life path number
func (n *Numerology) LifePath(ctx context.Context, year, month, day int) (any, error) {
	return n.get(ctx, "/life_path", map[string]string{"year": itoa(year), "month": itoa(month), "day": itoa(day)})
}

// Attitude returns the attitude number
func (n *Numerology) Attitude(ctx context.Context, day, month int) (any, error) {
	return n.get(ctx, "/attitude_number", map[string]string{"birth_day": itoa(day), "birth_month": itoa(month)})
}

// Balance returns the balance number for the name initials
func (n *Numerology) Balance(ctx context.Context, initials string) (any, error) {
	return n.get(ctx, "/balance_number", map[string]string{"initials": initials})
}

// Challenge returns the challenge number
func (n *Numerology) Challenge(ctx context.Context, year, month, day int) (any, error) {
	return n.get(ctx, "/challenge_number", map[string]string{"birth_year": itoa(year), "birth_month": itoa(month), "birth_day": itoa(day)})
}

// KarmicDebt returns the karmic debt numbers
func (n *Numerology) KarmicDebt(ctx context.Context, year, month, day int) (any, error) {
	return n.get(ctx, "/karmic_debt", map[string]string{"year": itoa(year), "month": itoa(month), "day": itoa(day)})
}

// KarmicLessons returns the karmic lessons for a full name
func (n *Numerology) KarmicLessons(ctx context.Context, fullName string) (any, error) {
	return n.get(ctx, "/karmic_lessons", map[string]string{"full_name": fullName})
}

func nameParams(first, middle, last string) map[string]string {
	return map[string]string{"first_name": blank(first), "middle_name": blank(middle), "last_name": blank(last)}
}

// Personality returns the personality number
func (n *Numerology) Personality(ctx context.Context, first, middle, last string) (any, error) {
	return n.get(ctx, "/personality_number", nameParams(first, middle, last))
}

// Destiny returns the destiny number
func (n *Numerology) Destiny(ctx context.Context, first, middle, last string) (any, error) {
	return n.get(ctx, "/destiny_number", nameParams(first, middle, last))
}

// HeartDesire returns the heart's desire number
func (n *Numerology) HeartDesire(ctx context.Context, first, middle, last string) (any, error) {
	return n.get(ctx, "/heart_desire", nameParams(first, middle, last))
}

// Subconscious returns the subconscious self number
func (n *Numerology) Subconscious(ctx context.Context, name string) (any, error) {
	return n.get(ctx, "/subconscious_number", map[string]string{"name": name})
}

// Thought returns the rational thought number
func (n *Numerology) Thought(ctx context.Context, first string, day int) (any, error) {
	return n.get(ctx, "/thought_number", map[string]string{"first_name": blank(first), "birth_day": itoa(day)})
}

// LuckyNumbers returns lucky numbers for a YYYY-MM-DD birthdate
func (n *Numerology) LuckyNumbers(ctx context.Context, birthdate, fullName string) (any, error) {
	return n.get(ctx, "/lucky_numbers", map[string]string{"birthdate": birthdate, "full_name": fullName})
}

// PeriodCycles returns the period cycles
func (n *Numerology) PeriodCycles(ctx context.Context, year, month, day int) (any, error) {
	return n.get(ctx, "/period_cycles", map[string]string{"birth_year": itoa(year), "birth_month": itoa(month), "birth_day": itoa(day)})
}

// LuckyDays returns the lucky days calendar for a YYYY-MM-DD birthdate
func (n *Numerology) LuckyDays(ctx context.Context, dob string) (any, error) {
	return n.get(ctx, "/lucky-days-calendar", map[string]string{"dob": dob})
}

// Health probes the API with a fixed life path request
func (n *Numerology) Health(ctx context.Context) error {
	_, err := n.LifePath(ctx, 2000, 1, 1)
	return err
}

// Person is the input of a numerology bundle
type Person struct {
	FullName  string
	BirthDate time.Time
}

// Bundle holds every numerology result keyed by name. A key whose call
// failed holds {"error": message}.
type Bundle map[string]any

// Bundle keys
const (
	KeyLifePath      = "lifePath"
	KeyAttitude      = "attitude"
	KeyBalance       = "balance"
	KeyChallenge     = "challenge"
	KeyKarmicDebt    = "karmicDebt"
	KeyKarmicLessons = "karmicLessons"
	KeyPersonality   = "personality"
	KeyDestiny       = "destiny"
	KeyHeartDesire   = "heartDesire"
	KeySubconscious  = "subconscious"
	KeyThought       = "thought"
	KeyLuckyNumbers  = "luckyNumbers"
	KeyPeriodCycles  = "periodCycles"
	KeyLuckyDays     = "luckyDays"
)

// Failed reports whether every entry of the bundle is an error
func (b Bundle) Failed() bool {
	if len(b) == 0 {
		return true
	}
	for _, v := range b {
		if !isErrorEntry(v) {
			return false
		}
	}
	return true
}

func isErrorEntry(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	_, has := m["error"]
	return has
}

// Bundle calls every endpoint for the person with all-settled semantics
func (n *Numerology) Bundle(ctx context.Context, p Person) (Bundle, error) {
	if !n.Configured() {
		return nil, fmt.Errorf("numerology: %w", ErrNotConfigured)
	}

	name := strings.TrimSpace(p.FullName)
	if name == "" {
		name = "User"
	}
	first, middle, last := SplitName(name)
	y, m, d := p.BirthDate.Year(), int(p.BirthDate.Month()), p.BirthDate.Day()
	iso := p.BirthDate.Format("2006-01-02")

	calls := map[string]func(context.Context) (any, error){
		KeyLifePath:      func(ctx context.Context) (any, error) { return n.LifePath(ctx, y, m, d) },
		KeyAttitude:      func(ctx context.Context) (any, error) { return n.Attitude(ctx, d, m) },
		KeyBalance:       func(ctx context.Context) (any, error) { return n.Balance(ctx, Initials(name)) },
		KeyChallenge:     func(ctx context.Context) (any, error) { return n.Challenge(ctx, y, m, d) },
		KeyKarmicDebt:    func(ctx context.Context) (any, error) { return n.KarmicDebt(ctx, y, m, d) },
		KeyKarmicLessons: func(ctx context.Context) (any, error) { return n.KarmicLessons(ctx, name) },
		KeyPersonality:   func(ctx context.Context) (any, error) { return n.Personality(ctx, first, middle, last) },
		KeyDestiny:       func(ctx context.Context) (any, error) { return n.Destiny(ctx, first, middle, last) },
		KeyHeartDesire:   func(ctx context.Context) (any, error) { return n.HeartDesire(ctx, first, middle, last) },
		KeySubconscious:  func(ctx context.Context) (any, error) { return n.Subconscious(ctx, name) },
		KeyThought:       func(ctx context.Context) (any, error) { return n.Thought(ctx, first, d) },
		KeyLuckyNumbers:  func(ctx context.Context) (any, error) { return n.LuckyNumbers(ctx, iso, name) },
		KeyPeriodCycles:  func(ctx context.Context) (any, error) { return n.PeriodCycles(ctx, y, m, d) },
		KeyLuckyDays:     func(ctx context.Context) (any, error) { return n.LuckyDays(ctx, iso) },
	}

	keys := sortedKeys(calls)
	results := make([]any, len(keys))

	var g errgroup.Group
	g.SetLimit(bundleConcurrency)
	for i, key := range keys {
		call := calls[key]
		g.Go(func() error {
			v, err := call(ctx)
			if err != nil {
				v = map[string]any{"error": err.Error()}
			}
			results[i] = v
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(Bundle, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}
	return out, nil
}

// ChartRequest is the input of BirthChartSVG. Zero values take the
// defaults: name "User", hour 12, minute 0, tz UTC, lang EN, theme classic.
type ChartRequest struct {
	Name    string
	Year    int
	Month   int
	Day     int
	Hour    *int
	Minute  *int
	Lat     *float64
	Lng     *float64
	City    string
	Country string
	TZ      string
	Lang    string
	Theme   string
}

func (r ChartRequest) payload() map[string]any {
	hour, minute := 12, 0
	if r.Hour != nil {
		hour = *r.Hour
	}
	if r.Minute != nil {
		minute = *r.Minute
	}

	p := map[string]any{
		"name":   orDefault(r.Name, "User"),
		"year":   itoa(r.Year),
		"month":  itoa(r.Month),
		"day":    itoa(r.Day),
		"hour":   itoa(hour),
		"minute": itoa(minute),
		"lang":   orDefault(r.Lang, "EN"),
		"theme":  orDefault(r.Theme, "classic"),
		"tz":     orDefault(r.TZ, "UTC"),
	}
	if r.Lat != nil {
		p["lat"] = *r.Lat
	}
	if r.Lng != nil {
		p["lng"] = *r.Lng
	}
	if r.City != "" {
		p["city"] = r.City
	}
	if r.Country != "" {
		p["country"] = r.Country
	}
	return p
}

// BirthChartSVG renders a western birth chart as SVG markup
func (n *Numerology) BirthChartSVG(ctx context.Context, req ChartRequest) (string, error) {
	if !n.Configured() {
		return "", fmt.Errorf("numerology: %w", ErrNotConfigured)
	}
	if req.Year == 0 || req.Month == 0 || req.Day == 0 {
		return "", fmt.Errorf("%w: year, month and day are required", ErrInvalidInput)
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req.payload()).
		Post("/birth-chart/svg")
	if err != nil {
		return "", fmt.Errorf("birth chart request: %w", err)
	}
	if err := checkResponse("numerology", resp, n.limiter); err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// SplitName splits a full name into first, middle and last parts. Two
// words give first and last; extra words go to the middle name.
func SplitName(full string) (first, middle, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// Initials returns the first letter of every word
func Initials(name string) string {
	var sb strings.Builder
	for _, part := range strings.Fields(name) {
		r := []rune(part)
		sb.WriteRune(r[0])
	}
	return sb.String()
}
