package tutor

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/speech"
	ws "github.com/spotlight2/coach/pkg/http/ws"
)

// Pusher forwards transcript and speech events to the learner's socket. A
// learner without a live socket simply misses the push.
type Pusher struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewPusher creates a pusher over hub.
func NewPusher(hub *ws.Hub, logger zerolog.Logger) *Pusher {
	return &Pusher{
		hub:    hub,
		logger: logger.With().Str("component", "tutor_push").Logger(),
	}
}

// TranscriptChanged implements Notifier.
func (p *Pusher) TranscriptChanged(t Transcript) {
	p.push(t.Learner, ws.TypeTranscriptUpdate, t)
}

// SpeechReady implements speech.ReadyNotifier.
func (p *Pusher) SpeechReady(owner uuid.UUID, ready speech.Ready) {
	p.push(owner, ws.TypeSpeechReady, ready)
}

func (p *Pusher) push(learner uuid.UUID, msgType string, payload interface{}) {
	msg, err := ws.NewMessage(msgType, payload, "")
	if err != nil {
		p.logger.Error().Err(err).Str("type", msgType).Msg("failed to encode push")
		return
	}
	if err := p.hub.SendToUser(learner, msg); err != nil && !errors.Is(err, ws.ErrConnectionNotFound) {
		p.logger.Warn().Err(err).Str("learner_id", learner.String()).Str("type", msgType).Msg("push failed")
	}
}
