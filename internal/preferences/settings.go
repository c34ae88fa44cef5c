package preferences

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Settings is one learner's preference context. It is loaded once and then
// changed only through Update.
type Settings struct {
	learner uuid.UUID
	store   Store

	mu   sync.RWMutex
	lang Language
}

// Language returns the current language.
func (s *Settings) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Update persists lang, then makes it current. A failed write leaves the
// in-memory value untouched.
func (s *Settings) Update(ctx context.Context, lang Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, s.learner, lang); err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	s.lang = lang
	return nil
}

// Registry hands out one Settings per learner.
type Registry struct {
	store  Store
	logger zerolog.Logger

	mu       sync.Mutex
	settings map[uuid.UUID]*Settings
}

// NewRegistry creates a registry over store.
func NewRegistry(store Store, logger zerolog.Logger) *Registry {
	return &Registry{
		store:    store,
		logger:   logger.With().Str("component", "preferences").Logger(),
		settings: make(map[uuid.UUID]*Settings),
	}
}

// For returns the learner's settings, loading them on first use. A store
// failure falls back to the default language without caching it.
func (r *Registry) For(ctx context.Context, learner uuid.UUID) *Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.settings[learner]; ok {
		return s
	}

	s := &Settings{learner: learner, store: r.store, lang: Default}
	lang, ok, err := r.store.Load(ctx, learner)
	if err != nil {
		r.logger.Warn().Err(err).Str("learner_id", learner.String()).Msg("failed to load language, using default")
		return s
	}
	if ok {
		s.lang = lang
	}
	r.settings[learner] = s
	return s
}

// Forget drops cached settings, e.g. when the learner disconnects.
func (r *Registry) Forget(learner uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settings, learner)
}
