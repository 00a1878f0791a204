// Package geocode turns coordinates into human-readable place names using a
// Nominatim-compatible reverse geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jamsesh/internal/models"
	"jamsesh/internal/observability"

	gocache "github.com/patrickmn/go-cache"
)

// Reverser resolves a coordinate to a location string.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Client is a reverse geocoder with an in-process result cache.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *gocache.Cache
}

var _ Reverser = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a Client for baseURL. Results are cached for ttl; ttl <= 0
// disables caching.
func New(baseURL, userAgent string, ttl time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if ttl > 0 {
		c.cache = gocache.New(ttl, 2*ttl)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// place prefers "Locality, State"; it falls back to the full display name.
func (r *reverseResponse) place() string {
	locality := firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village, r.Address.Hamlet)
	switch {
	case locality != "" && r.Address.State != "":
		return locality + ", " + r.Address.State
	case locality != "":
		return locality
	default:
		return r.DisplayName
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// ValidCoordinate reports whether lat/lng are finite and in range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Reverse resolves lat/lng. A non-200 upstream answer is an upstream error;
// nothing is retried.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (place string, err error) {
	if !ValidCoordinate(lat, lng) {
		return "", models.NewValidationError("Coordinates out of range")
	}

	key := cacheKey(lat, lng)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			observability.GeocodeLookups.WithLabelValues("hit").Inc()
			return v.(string), nil
		}
	}

	ctx, span := observability.StartClientSpan(ctx, "nominatim", "reverse")
	defer func() { observability.EndSpan(span, err) }()

	place, err = c.fetch(ctx, lat, lng)
	if err != nil {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		return "", err
	}
	observability.GeocodeLookups.WithLabelValues("miss").Inc()
	if c.cache != nil {
		c.cache.Set(key, place, gocache.DefaultExpiration)
	}
	return place, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewUpstreamError("Geocoding service unavailable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", models.NewUpstreamError("Geocoding failed", fmt.Errorf("geocoder returned status %d", resp.StatusCode))
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", models.NewUpstreamError("Geocoding failed", fmt.Errorf("decode geocoder response: %w", err))
	}
	if body.Error != "" {
		return "", models.NewUpstreamError("Geocoding failed", fmt.Errorf("geocoder: %s", body.Error))
	}
	return body.place(), nil
}
