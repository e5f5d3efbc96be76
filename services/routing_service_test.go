// File: /services/routing_service_test.go
package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripweaver-api/models"
)

func TestProfileForTransportMode(t *testing.T) {
	assert.Equal(t, ProfileDriving, ProfileForTransportMode(models.TransportCar))
	assert.Equal(t, ProfileCycling, ProfileForTransportMode(models.TransportBike))
	assert.Equal(t, ProfileWalking, ProfileForTransportMode(models.TransportWalk))

	// Modes without a dedicated profile fall back to driving.
	assert.Equal(t, ProfileDriving, ProfileForTransportMode(models.TransportPlane))
	assert.Equal(t, ProfileDriving, ProfileForTransportMode(models.TransportTrain))
	assert.Equal(t, ProfileDriving, ProfileForTransportMode(models.TransportBoat))
}

func TestRoutingService_GetDistanceAndDuration(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"routes":[{"distance":465200.0,"duration":16320.0}]}`))
	}))
	defer server.Close()

	svc := NewRoutingServiceWithBaseURL(server.URL, "test-token", zap.NewNop().Sugar())
	result := svc.GetDistanceAndDuration(context.Background(), 48.8566, 2.3522, 45.764, 4.8357, ProfileDriving)

	require.NotNil(t, result)
	assert.InDelta(t, 465.2, result.DistanceKm, 0.001)
	assert.Equal(t, 272, result.DurationMinutes)

	// Mapbox wants profile then lng,lat pairs.
	assert.Contains(t, requestedPath, "/driving/")
	assert.Contains(t, requestedPath, "2.352200,48.856600;4.835700,45.764000")
}

func TestRoutingService_GetDistanceAndDuration_RoundsDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[{"distance":1000.0,"duration":89.0}]}`))
	}))
	defer server.Close()

	svc := NewRoutingServiceWithBaseURL(server.URL, "test-token", zap.NewNop().Sugar())
	result := svc.GetDistanceAndDuration(context.Background(), 1, 1, 2, 2, ProfileWalking)

	require.NotNil(t, result)
	assert.Equal(t, 1, result.DurationMinutes) // 89s rounds to 1min
}

func TestRoutingService_GetDistanceAndDuration_NoRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[]}`))
	}))
	defer server.Close()

	svc := NewRoutingServiceWithBaseURL(server.URL, "test-token", zap.NewNop().Sugar())
	assert.Nil(t, svc.GetDistanceAndDuration(context.Background(), 1, 1, 2, 2, ProfileDriving))
}

func TestRoutingService_GetDistanceAndDuration_MissingToken(t *testing.T) {
	svc := NewRoutingService("", zap.NewNop().Sugar())
	assert.Nil(t, svc.GetDistanceAndDuration(context.Background(), 1, 1, 2, 2, ProfileDriving))
}

func TestRoutingService_GetDistanceAndDuration_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"routes":[{"distance":2000.0,"duration":120.0}]}`))
	}))
	defer server.Close()

	svc := NewRoutingServiceWithBaseURL(server.URL, "test-token", zap.NewNop().Sugar())
	result := svc.GetDistanceAndDuration(context.Background(), 1, 1, 2, 2, ProfileDriving)

	require.NotNil(t, result)
	assert.InDelta(t, 2.0, result.DistanceKm, 0.001)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRoutingService_GetDistanceAndDuration_GivesUpOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewRoutingServiceWithBaseURL(server.URL, "bad-token", zap.NewNop().Sugar())
	assert.Nil(t, svc.GetDistanceAndDuration(context.Background(), 1, 1, 2, 2, ProfileDriving))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
