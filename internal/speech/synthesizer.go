package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/spotlight2/coach/internal/metrics"
)

// TextToSpeech renders text to audio.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text, languageTag string) ([]byte, error)
}

// Ready announces playable audio.
type Ready struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	LanguageTag string `json:"language_tag"`
}

// ReadyNotifier receives finished utterances.
type ReadyNotifier interface {
	SpeechReady(owner uuid.UUID, ready Ready)
}

// AudioPath is where cached audio is served.
func AudioPath(key string) string { return "/v1/speech/" + key }

type utterance struct {
	cancel context.CancelFunc
}

// Synthesizer speaks at most one utterance per owner. Identical requests
// from different owners share a single upstream call.
type Synthesizer struct {
	tts      TextToSpeech
	cache    AudioCache
	notifier ReadyNotifier
	timeout  time.Duration
	logger   zerolog.Logger

	group singleflight.Group
	wg    sync.WaitGroup

	mu     sync.Mutex
	active map[uuid.UUID]*utterance
}

// NewSynthesizer wires a synthesizer. notifier may be nil.
func NewSynthesizer(tts TextToSpeech, cache AudioCache, notifier ReadyNotifier, timeout time.Duration, logger zerolog.Logger) *Synthesizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Synthesizer{
		tts:      tts,
		cache:    cache,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With().Str("component", "speech_synthesizer").Logger(),
		active:   make(map[uuid.UUID]*utterance),
	}
}

// Speak starts reading text for owner and returns immediately. Any earlier
// utterance for the same owner is cancelled first.
func (s *Synthesizer) Speak(owner uuid.UUID, text, languageTag string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	u := &utterance{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.active[owner]; ok {
		prev.cancel()
	}
	s.active[owner] = u
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.done(owner, u)
		s.run(ctx, owner, text, languageTag)
	}()
}

// Stop cancels owner's current utterance, if any.
func (s *Synthesizer) Stop(owner uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.active[owner]; ok {
		u.cancel()
		delete(s.active, owner)
	}
}

// Close cancels everything and waits for workers to exit.
func (s *Synthesizer) Close() {
	s.mu.Lock()
	for owner, u := range s.active {
		u.cancel()
		delete(s.active, owner)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Audio returns cached audio for key.
func (s *Synthesizer) Audio(ctx context.Context, key string) ([]byte, bool, error) {
	return s.cache.Get(ctx, key)
}

func (s *Synthesizer) done(owner uuid.UUID, u *utterance) {
	u.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[owner] == u {
		delete(s.active, owner)
	}
}

func (s *Synthesizer) run(ctx context.Context, owner uuid.UUID, text, languageTag string) {
	key := CacheKey(languageTag, text)
	result := "cached"

	_, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("audio cache read failed")
	}
	if !hit {
		ch := s.group.DoChan(key, func() (interface{}, error) {
			// Detached so one owner cancelling does not fail the others.
			sctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			audio, err := s.tts.Synthesize(sctx, text, languageTag)
			if err != nil {
				return nil, err
			}
			return nil, s.cache.Put(sctx, key, audio)
		})

		select {
		case <-ctx.Done():
			metrics.SpeechSynthesis.WithLabelValues("canceled").Inc()
			return
		case res := <-ch:
			if res.Err != nil {
				metrics.SpeechSynthesis.WithLabelValues("failed").Inc()
				s.logger.Warn().Err(res.Err).
					Str("owner", owner.String()).
					Str("language_tag", languageTag).
					Msg("speech synthesis failed")
				return
			}
		}
		result = "synthesized"
	}

	if ctx.Err() != nil {
		metrics.SpeechSynthesis.WithLabelValues("canceled").Inc()
		return
	}
	metrics.SpeechSynthesis.WithLabelValues(result).Inc()

	if s.notifier != nil {
		s.notifier.SpeechReady(owner, Ready{Key: key, URL: AudioPath(key), LanguageTag: languageTag})
	}
}
