package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"infohub/internal/domain"
	"infohub/internal/httputil"
)

// Geocoder resolves a free-text query to coordinates. No results yield domain.ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// ProxyGeocoder calls a Nominatim-style proxy: GET {base}?q=...&format=json&limit=1.
type ProxyGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewProxyGeocoder builds a geocoder limited to ratePerSecond requests (0 disables limiting).
func NewProxyGeocoder(baseURL string, ratePerSecond float64) *ProxyGeocoder {
	var transport http.RoundTripper = &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if ratePerSecond > 0 {
		transport = &httputil.RateLimitedTransport{
			Base:    transport,
			Limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		}
	}
	return &ProxyGeocoder{baseURL: baseURL, client: httputil.NewHTTPClient(transport, 10*time.Second)}
}

type geocodeResult struct {
	Lat flexFloat `json:"lat"`
	Lon flexFloat `json:"lon"`
}

func (g *ProxyGeocoder) Geocode(ctx context.Context, query string) (Point, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return Point{}, fmt.Errorf("geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Point{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode: %v: %w", err, domain.ErrBackendUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocode status %d: %w", resp.StatusCode, domain.ErrBackendUnavailable)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return Point{}, fmt.Errorf("geocode read: %v: %w", err, domain.ErrBackendUnavailable)
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Point{}, fmt.Errorf("geocode decode: %v: %w", err, domain.ErrBackendUnavailable)
	}
	if len(results) == 0 {
		return Point{}, fmt.Errorf("geocode %q: %w", query, domain.ErrNotFound)
	}
	return Point{Latitude: float64(results[0].Lat), Longitude: float64(results[0].Lon)}, nil
}

// flexFloat accepts JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
