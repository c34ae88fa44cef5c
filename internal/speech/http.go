package speech

import (
	"encoding/hex"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/spotlight2/coach/pkg/http/errors"
)

// AudioHandler serves synthesized audio.
type AudioHandler struct {
	synth  *Synthesizer
	logger zerolog.Logger
}

// NewAudioHandler creates the handler.
func NewAudioHandler(synth *Synthesizer, logger zerolog.Logger) *AudioHandler {
	return &AudioHandler{
		synth:  synth,
		logger: logger.With().Str("component", "speech_http").Logger(),
	}
}

// ServeAudio handles GET /v1/speech/{key}
func (h *AudioHandler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	key := r.PathValue("key")
	if raw, err := hex.DecodeString(key); err != nil || len(raw) != 16 {
		httperrors.RespondNotFound(w, httperrors.ErrCodeAudioNotFound, "Audio not found")
		return
	}

	data, ok, err := h.synth.Audio(r.Context(), key)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("failed to read audio")
		httperrors.RespondInternalError(w, "Could not load audio")
		return
	}
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeAudioNotFound, "Audio not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
