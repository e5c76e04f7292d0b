package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kishanx08/ticket-master/internal/metrics"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	m := metrics.New()
	m.Fired.Inc()
	s := New(":0", m, func(context.Context) error { return nil }, zerolog.Nop())

	w := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bot is alive", w.Body.String())

	w = get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reminders_fired_total 1")

	w = get(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzUnavailable(t *testing.T) {
	s := New(":0", metrics.New(), func(context.Context) error { return errors.New("db down") }, zerolog.Nop())

	w := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db down")
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", metrics.New(), func(context.Context) error { return nil }, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
}
