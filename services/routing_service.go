// File: /services/routing_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tripweaver-api/models"
)

// Mapbox Directions profiles.
const (
	ProfileDriving = "driving"
	ProfileWalking = "walking"
	ProfileCycling = "cycling"
)

// ProfileForTransportMode maps our transport modes to routing profiles.
// Plane/train/bus/boat have no specialized routing and fall back to driving.
func ProfileForTransportMode(mode models.TransportMode) string {
	switch mode {
	case models.TransportBike:
		return ProfileCycling
	case models.TransportWalk:
		return ProfileWalking
	default:
		return ProfileDriving
	}
}

// RouteResult is one leg's travel estimate. Distance is kilometers, duration
// whole minutes; the conversion from Mapbox's meters/seconds happens here so
// the unit ambiguity never leaves this boundary.
type RouteResult struct {
	DistanceKm      float64
	DurationMinutes int
}

// RoutingService queries the Mapbox Directions API. All failures degrade to a
// nil result: distance data is never worth failing a trip mutation for.
type RoutingService struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewRoutingService(token string, log *zap.SugaredLogger) *RoutingService {
	return &RoutingService{
		baseURL: "https://api.mapbox.com/directions/v5/mapbox",
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// NewRoutingServiceWithBaseURL is used by tests to point at a stub server.
func NewRoutingServiceWithBaseURL(baseURL, token string, log *zap.SugaredLogger) *RoutingService {
	s := NewRoutingService(token, log)
	s.baseURL = baseURL
	return s
}

type directionsResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// GetDistanceAndDuration returns the travel estimate between two points, or
// nil when no route could be obtained.
func (s *RoutingService) GetDistanceAndDuration(ctx context.Context, fromLat, fromLng, toLat, toLng float64, profile string) *RouteResult {
	if s.token == "" {
		s.log.Warnw("mapbox token not configured, skipping directions call")
		return nil
	}

	// Mapbox expects lng,lat pairs.
	endpoint := fmt.Sprintf("%s/%s/%s,%s;%s,%s",
		s.baseURL, profile,
		formatCoord(fromLng), formatCoord(fromLat),
		formatCoord(toLng), formatCoord(toLat),
	)

	query := url.Values{}
	query.Set("access_token", s.token)
	query.Set("geometries", "geojson")

	resp, err := doWithRetry(ctx, s.client, endpoint+"?"+query.Encode())
	if err != nil {
		s.log.Warnw("mapbox directions request failed", "profile", profile, "error", err)
		return nil
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.log.Warnw("decode directions response", "error", err)
		return nil
	}
	if len(decoded.Routes) == 0 {
		return nil
	}

	route := decoded.Routes[0]
	return &RouteResult{
		DistanceKm:      route.Distance / 1000,
		DurationMinutes: int(math.Round(route.Duration / 60)),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type httpStatusError struct {
	Code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation.
func doWithRetry(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err == nil {
			if resp.StatusCode < 400 {
				return resp, nil
			}
			resp.Body.Close()
			err = &httpStatusError{Code: resp.StatusCode}
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}
