package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTurn(t *testing.T) {
	c := NewCollector("test")
	c.ObserveTurn("en", OutcomeQuestion)
	c.ObserveTurn("en", OutcomeQuestion)
	c.ObserveTurn("da", OutcomeCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Turns.WithLabelValues("en", OutcomeQuestion)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Turns.WithLabelValues("da", OutcomeCompleted)))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveTurn("en", OutcomeFailed)
	c.ObserveSessionStarted()
	c.ObserveGeneration(time.Second, errors.New("boom"))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	c := NewCollector("test")

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/ws/{userID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Method(http.MethodGet, "/metrics", c.Handler())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/ws/abc", nil))
	require.Equal(t, http.StatusTeapot, resp.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/ws/{userID}", "418")))

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), "test_http_requests_total"))
}
