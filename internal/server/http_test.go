package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/spotlight2/coach/internal/auth"
	"github.com/spotlight2/coach/internal/config"
	"github.com/spotlight2/coach/internal/curriculum"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/quiz"
	"github.com/spotlight2/coach/internal/speech"
	"github.com/spotlight2/coach/internal/tutor"
)

func newTestServer(t *testing.T) *http.Server {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, client *redis.Client) *http.Server {
	t.Helper()
	logger := zerolog.Nop()
	return NewHTTPServer(&config.App{HTTPAddr: ":0"}, logger, nil, client, Routes{
		Auth:        auth.NewHTTPHandlers(nil, logger),
		Curriculum:  curriculum.NewHTTPHandlers(nil, logger),
		Practice:    quiz.NewHTTPHandlers(nil, logger),
		Preferences: preferences.NewHTTPHandlers(nil, logger),
		Tutor:       tutor.NewHandler(tutor.HandlerDeps{}, logger),
		Chat:        tutor.NewChatProxy(nil, time.Second, logger),
		Audio:       speech.NewAudioHandler(nil, logger),
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()

	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/chat", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/progress", http.StatusUnauthorized},
		{http.MethodGet, "/v1/tutor/transcript", http.StatusUnauthorized},
		{http.MethodPost, "/v1/tutor/messages", http.StatusUnauthorized},
		{http.MethodGet, "/v1/preferences/language", http.StatusUnauthorized},
		{http.MethodPost, "/v1/practice", http.StatusUnauthorized},
		{http.MethodDelete, "/v1/practice/0b7e6b7c-1f1e-4d5c-9a43-9a1c2d3e4f50", http.StatusUnauthorized},
		{http.MethodGet, "/ws/tutor", http.StatusUnauthorized},
		{http.MethodGet, "/v1/speech/nothex", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRoutes_MalformedBearer(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/progress", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPing(t *testing.T) {
	t.Run("no backends configured", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(t).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"pong":true}`, rec.Body.String())
	})

	t.Run("unreachable redis", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		})
		t.Cleanup(func() { _ = client.Close() })

		rec := httptest.NewRecorder()
		newTestServerWithRedis(t, client).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
