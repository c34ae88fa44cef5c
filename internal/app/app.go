package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth"
	"github.com/spotlight2/coach/internal/auth/jwt"
	"github.com/spotlight2/coach/internal/config"
	"github.com/spotlight2/coach/internal/curriculum"
	"github.com/spotlight2/coach/internal/db/queries"
	"github.com/spotlight2/coach/internal/db/repository"
	"github.com/spotlight2/coach/internal/logging"
	"github.com/spotlight2/coach/internal/metrics"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/quiz"
	"github.com/spotlight2/coach/internal/server"
	"github.com/spotlight2/coach/internal/speech"
	"github.com/spotlight2/coach/internal/tutor"
	"github.com/spotlight2/coach/internal/tutor/gemini"
	ws "github.com/spotlight2/coach/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	hub   *ws.Hub
	synth *speech.Synthesizer
}

// New bootstraps configs, logger, Postgres, Redis, the curriculum and the
// HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	catalog, err := curriculum.Load()
	if err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN()+" pool_max_conns=10")
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	learnerRepo := repository.NewLearnerRepository(q)
	practiceRepo := repository.NewPracticeRepository(q)

	// Identity
	authSvc := auth.NewService(learnerRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret: []byte(cfg.Security.JWTSecret),
			Issuer:       cfg.Name,
		},
	}, logger)

	// Practice
	practiceSvc := quiz.NewService(
		quiz.NewRedisStore(redisClient, cfg.Practice.SessionTTL, cfg.Practice.LockTTL, logger),
		catalog,
		practiceRepo,
		logger,
	)

	prefs := preferences.NewRegistry(preferences.NewRedisStore(redisClient), logger)

	// Tutor
	if cfg.AI.GeminiKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not configured; tutor replies will be apologies")
	}
	if cfg.Speech.GoogleKey == "" {
		logger.Warn().Msg("GOOGLE_SPEECH_API_KEY not configured; voice input and read-aloud disabled")
	}

	hub := ws.NewHub(logging.Component(logger, "ws_hub"))
	if err := metrics.ObserveSockets(prometheus.DefaultRegisterer, hub.Connected); err != nil {
		return nil, fmt.Errorf("register socket gauge: %w", err)
	}
	pusher := tutor.NewPusher(hub, logger)

	responder := gemini.NewClient(gemini.Config{
		APIKey:  cfg.AI.GeminiKey,
		Model:   cfg.AI.GeminiModel,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.HTTPTimeout,
	}, logger)

	google := speech.NewGoogleClient(speech.GoogleConfig{
		APIKey:  cfg.Speech.GoogleKey,
		TTSURL:  cfg.Speech.TTSURL,
		STTURL:  cfg.Speech.STTURL,
		Timeout: cfg.Speech.HTTPTimeout,
	}, logger)

	synth := speech.NewSynthesizer(google, speech.NewRedisCache(redisClient, cfg.Speech.AudioCacheTTL), pusher, cfg.Speech.HTTPTimeout, logger)

	var speaker tutor.Speaker
	if cfg.Speech.GoogleKey != "" {
		speaker = synth
	}

	pipeline := tutor.NewPipeline(responder, google, speaker, pusher, tutor.Options{
		ChatTimeout:       cfg.AI.ChatTimeout,
		TranscribeTimeout: cfg.Speech.TranscribeTimeout,
	}, logger)

	tutorHandler := tutor.NewHandler(tutor.HandlerDeps{
		Pipeline: pipeline,
		Manager:  tutor.NewManager(),
		Prefs:    prefs,
		Recorder: speech.NewRecorder(cfg.Speech.MaxClipBytes),
		Speech:   synth,
		Hub:      hub,
		Tokens:   authSvc,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Routes{
		AuthService: authSvc,
		Auth:        auth.NewHTTPHandlers(authSvc, logger),
		Curriculum:  curriculum.NewHTTPHandlers(catalog, logger),
		Practice:    quiz.NewHTTPHandlers(practiceSvc, logger),
		Preferences: preferences.NewHTTPHandlers(prefs, logger),
		Tutor:       tutorHandler,
		Chat:        tutor.NewChatProxy(responder, cfg.AI.ChatTimeout, logger),
		Audio:       speech.NewAudioHandler(synth, logger),
	})

	logger.Info().
		Int("units", len(catalog.Units())).
		Str("model", cfg.AI.GeminiModel).
		Msg("application wired")

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
		hub:    hub,
		synth:  synth,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	// Hijacked sockets are not covered by Shutdown.
	a.hub.CloseAll()
	a.synth.Close()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
