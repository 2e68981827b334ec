// Package geo resolves the device's current location. Capture is best
// effort: a shift transition must never be blocked on a missing fix, so
// providers return nil instead of an error when location is unavailable.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crewtime/shiftclock/internal/store"
)

// CaptureTimeout bounds a single location attempt.
const CaptureTimeout = 5 * time.Second

// Provider captures a single location sample. Implementations return
// nil when the lookup fails, is denied, or exceeds its time bound.
type Provider interface {
	Capture(ctx context.Context) *store.GeoPoint
}

// HTTPProvider resolves location through an IP-geolocation endpoint.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

// NewHTTPProvider returns a provider querying url, with the capture
// timeout applied to every request.
func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		URL:    url,
		Client: &http.Client{Timeout: CaptureTimeout},
	}
}

type geoResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

func (p *HTTPProvider) Capture(ctx context.Context) *store.GeoPoint {
	ctx, cancel := context.WithTimeout(ctx, CaptureTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if body.Status != "" && body.Status != "success" {
		return nil
	}
	return &store.GeoPoint{Lat: body.Lat, Lng: body.Lon}
}

// Static always returns a fixed point. Used in tests and for kiosks at
// a known site.
type Static struct {
	Point store.GeoPoint
}

func (s Static) Capture(context.Context) *store.GeoPoint {
	p := s.Point
	return &p
}

// Unavailable never produces a fix.
type Unavailable struct{}

func (Unavailable) Capture(context.Context) *store.GeoPoint { return nil }
