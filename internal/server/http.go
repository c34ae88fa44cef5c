package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth"
	"github.com/spotlight2/coach/internal/config"
	"github.com/spotlight2/coach/internal/curriculum"
	"github.com/spotlight2/coach/internal/logging"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/quiz"
	"github.com/spotlight2/coach/internal/speech"
	"github.com/spotlight2/coach/internal/tutor"
)

// Routes groups the handler sets mounted by the API server.
type Routes struct {
	AuthService *auth.Service
	Auth        *auth.HTTPHandlers
	Curriculum  *curriculum.HTTPHandlers
	Practice    *quiz.HTTPHandlers
	Preferences *preferences.HTTPHandlers
	Tutor       *tutor.Handler
	Chat        http.Handler
	Audio       *speech.AudioHandler
}

// NewHTTPServer wires every API route plus health and metrics.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	protected := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }

	// Public
	mux.HandleFunc("/v1/auth/guest", routes.Auth.CreateGuest)
	mux.HandleFunc("/v1/auth/refresh", routes.Auth.RefreshToken)

	mux.HandleFunc("/v1/units", routes.Curriculum.ListUnits)
	mux.HandleFunc("/v1/units/{id}", routes.Curriculum.GetUnit)
	mux.HandleFunc("/v1/vocabulary", routes.Curriculum.SearchVocabulary)
	mux.HandleFunc("/v1/grammar", routes.Curriculum.ListGrammar)
	mux.HandleFunc("/v1/grammar/{id}", routes.Curriculum.GetGrammar)

	mux.Handle("/chat", routes.Chat)
	mux.HandleFunc("/v1/speech/{key}", routes.Audio.ServeAudio)

	// Token in query string
	mux.HandleFunc("/ws/tutor", routes.Tutor.HandleWebSocket)

	// Learner scoped
	mux.Handle("/v1/practice", protected(routes.Practice.StartSession))
	mux.Handle("GET /v1/practice/{id}", protected(routes.Practice.GetSession))
	mux.Handle("DELETE /v1/practice/{id}", protected(routes.Practice.DiscardSession))
	mux.Handle("/v1/practice/{id}/answers", protected(routes.Practice.SubmitAnswer))
	mux.Handle("/v1/practice/{id}/reset", protected(routes.Practice.ResetSession))
	mux.Handle("/v1/progress", protected(routes.Practice.Progress))

	mux.Handle("/v1/preferences/language", protected(routes.Preferences.Language))

	mux.Handle("/v1/tutor/transcript", protected(routes.Tutor.Transcript))
	mux.Handle("/v1/tutor/messages", protected(routes.Tutor.SendMessage))
	mux.Handle("/v1/tutor/voice", protected(routes.Tutor.SendVoice))
	mux.Handle("/v1/tutor/clear", protected(routes.Tutor.Clear))

	handler := auth.AuthMiddleware(routes.AuthService, logger)(mux)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// requestLogger puts a request-scoped logger in the context and logs each
// request once it completes.
func requestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		reqLogger.Debug().
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack passes through for the WebSocket upgrade.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	s.status = http.StatusSwitchingProtocols
	return http.NewResponseController(s.ResponseWriter).Hijack()
}

// pingDependencies checks every configured backend; nil ones are skipped.
func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
