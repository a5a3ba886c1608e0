package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		report := health.Run(context.Background(), nil, time.Second, nil)
		require.Equal(t, health.StatusHealthy, report.Status)
	})

	t.Run("one failing check marks the report unhealthy", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), health.Checks{
			"ok":   func(context.Context) error { return nil },
			"down": func(context.Context) error { return errors.New("connection refused") },
		}, time.Second, nil)

		require.Equal(t, health.StatusUnhealthy, report.Status)
		require.Equal(t, health.StatusHealthy, report.Checks["ok"].Status)
		require.Equal(t, "connection refused", report.Checks["down"].Error)
	})
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	h := health.ReadinessHandler(health.Checks{
		"down": func(context.Context) error { return errors.New("boom") },
	}, time.Second, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, health.StatusUnhealthy, report.Status)
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}
