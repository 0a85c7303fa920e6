package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.SubmissionsTotal.WithLabelValues("accepted").Inc()
	m.ReviewsTotal.WithLabelValues("approved").Inc()
	m.HeartbeatFailures.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `trailer_submissions_total{result="accepted"} 1`)
	assert.Contains(t, body, `trailer_reviews_total{outcome="approved"} 1`)
	assert.Contains(t, body, "trailer_heartbeat_failures_total 1")
}

func TestNew_IsolatedRegistries(t *testing.T) {
	// Two instances must never share collectors, so tests and embedded
	// uses cannot collide on registration.
	first := New()
	second := New()

	first.HeartbeatFailures.Inc()

	rec := httptest.NewRecorder()
	second.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "trailer_heartbeat_failures_total 0")
}
