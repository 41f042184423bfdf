package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/middleware"
)

// stubPinger reports a fixed ping result.
type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

// setupTestRouter creates a bare test Gin router.
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(stubPinger{}, "memory", "test")

	router := setupTestRouter()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, HealthResponse{Status: "healthy"}, response)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{
			name:           "returns 200 when storage is reachable",
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Storage: "connected", Backend: "postgres"},
		},
		{
			name:           "returns 503 when storage is unreachable",
			pingErr:        errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Storage: "disconnected", Backend: "postgres"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(stubPinger{err: tt.pingErr}, "postgres", "test")

			router := setupTestRouter()
			router.Use(middleware.Logger(logger.Nop()))
			router.GET("/health/ready", handler.Ready)

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		startTime time.Time
		uptime    string
	}{
		{
			name:      "development environment",
			env:       "development",
			startTime: time.Now().Add(-2 * time.Hour),
			uptime:    "2h 0m 0s",
		},
		{
			name:      "production environment",
			env:       "production",
			startTime: time.Now().Add(-24 * time.Hour),
			uptime:    "1d 0h 0m 0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(stubPinger{}, "memory", tt.env)
			handler.startTime = tt.startTime

			router := setupTestRouter()
			router.GET("/api/v1/info", handler.Info)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			var response InfoResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, APIVersion, response.Version)
			assert.Equal(t, tt.env, response.Environment)
			assert.Equal(t, tt.uptime, response.Uptime)
		})
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "seconds only", duration: 45 * time.Second, expected: "0h 0m 45s"},
		{name: "minutes and seconds", duration: 5*time.Minute + 30*time.Second, expected: "0h 5m 30s"},
		{name: "hours", duration: 2*time.Hour + 15*time.Minute + 45*time.Second, expected: "2h 15m 45s"},
		{name: "days", duration: 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, expected: "3d 5h 30m 15s"},
		{name: "exactly one day", duration: 24 * time.Hour, expected: "1d 0h 0m 0s"},
		{name: "zero", duration: 0, expected: "0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}

func TestReadyResponse_JSON(t *testing.T) {
	data, err := json.Marshal(ReadyResponse{Status: "ready", Storage: "connected", Backend: "badger"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ready","storage":"connected","backend":"badger"}`, string(data))
}

func BenchmarkHealthHandler_Health(b *testing.B) {
	handler := NewHealthHandler(stubPinger{}, "memory", "test")

	router := setupTestRouter()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

func ExampleHealthHandler_Health() {
	handler := NewHealthHandler(stubPinger{}, "memory", "development")

	router := gin.New()
	router.GET("/health", handler.Health)

	fmt.Println("Health endpoint registered at /health")
	// Output: Health endpoint registered at /health
}
