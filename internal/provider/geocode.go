package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultGeocodeURL is the Google Maps geocoding endpoint
const DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Location is a latitude/longitude pair
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocoderConfig configures a Geocoder
type GeocoderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Limiter  *RateLimiter
}

// Geocoder resolves place names to coordinates
type Geocoder struct {
	client   *resty.Client
	endpoint string
	key      string
	limiter  *RateLimiter
}

// NewGeocoder creates a geocoding client
func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGeocodeURL
	}
	return &Geocoder{
		client:   newRestClient("", cfg.Timeout),
		endpoint: endpoint,
		key:      cfg.APIKey,
		limiter:  cfg.Limiter,
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the coordinates of the first match for address
func (g *Geocoder) Geocode(ctx context.Context, address string) (Location, error) {
	if g.key == "" {
		return Location{}, fmt.Errorf("geocode: %w", ErrNotConfigured)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, fmt.Errorf("%w: empty address", ErrInvalidInput)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return Location{}, err
	}

	var out geocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     g.key,
		}).
		SetResult(&out).
		Get(g.endpoint)
	if err != nil {
		return Location{}, fmt.Errorf("geocode request: %w", err)
	}
	if err := checkResponse("geocode", resp, g.limiter); err != nil {
		return Location{}, err
	}

	if out.Status != "OK" || len(out.Results) == 0 {
		if out.Status == "OVER_QUERY_LIMIT" {
			g.limiter.RecordRateLimitError(0)
		}
		return Location{}, fmt.Errorf("%w: %s (status %s)", ErrGeocodeNoResult, address, out.Status)
	}
	return out.Results[0].Geometry.Location, nil
}
