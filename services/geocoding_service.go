// File: /services/geocoding_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GeocodingService resolves coordinates to an ISO country code through the
// Mapbox reverse geocoding API. "Not found" is nil, never an error.
type GeocodingService struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewGeocodingService(token string, log *zap.SugaredLogger) *GeocodingService {
	return &GeocodingService{
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// NewGeocodingServiceWithBaseURL is used by tests to point at a stub server.
func NewGeocodingServiceWithBaseURL(baseURL, token string, log *zap.SugaredLogger) *GeocodingService {
	s := NewGeocodingService(token, log)
	s.baseURL = baseURL
	return s
}

type geocodeResponse struct {
	Features []struct {
		Text       string `json:"text"`
		Properties struct {
			ShortCode string `json:"short_code"`
		} `json:"properties"`
	} `json:"features"`
}

// CountryInfo is the resolved country of a coordinate pair.
type CountryInfo struct {
	Name string
	Code string
}

// GetCountryCode returns the upper-cased country code for the coordinates,
// or nil when it cannot be resolved.
func (s *GeocodingService) GetCountryCode(ctx context.Context, lat, lng float64) *string {
	info := s.ResolveCountry(ctx, lat, lng)
	if info == nil {
		return nil
	}
	return &info.Code
}

// ResolveCountry returns the country name and upper-cased ISO code for the
// coordinates, or nil when they cannot be resolved.
func (s *GeocodingService) ResolveCountry(ctx context.Context, lat, lng float64) *CountryInfo {
	if s.token == "" {
		s.log.Warnw("mapbox token not configured, skipping geocoding call")
		return nil
	}

	endpoint := fmt.Sprintf("%s/%s,%s.json", s.baseURL, formatCoord(lng), formatCoord(lat))

	query := url.Values{}
	query.Set("access_token", s.token)
	query.Set("types", "country")
	query.Set("limit", "1")

	resp, err := doWithRetry(ctx, s.client, endpoint+"?"+query.Encode())
	if err != nil {
		s.log.Warnw("mapbox geocoding request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.log.Warnw("decode geocode response", "error", err)
		return nil
	}
	if len(decoded.Features) == 0 || decoded.Features[0].Properties.ShortCode == "" {
		return nil
	}

	feature := decoded.Features[0]
	return &CountryInfo{
		Name: feature.Text,
		Code: strings.ToUpper(feature.Properties.ShortCode),
	}
}
