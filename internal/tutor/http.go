package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/speech"
	httperrors "github.com/spotlight2/coach/pkg/http/errors"
	ws "github.com/spotlight2/coach/pkg/http/ws"
)

// SpeechStopper cancels a learner's current utterance.
type SpeechStopper interface {
	Stop(owner uuid.UUID)
}

// Handler serves the tutor over REST and WebSocket.
type Handler struct {
	pipeline *Pipeline
	convs    *Manager
	prefs    *preferences.Registry
	recorder *speech.Recorder
	speech   SpeechStopper
	hub      *ws.Hub
	tokens   TokenValidator
	logger   zerolog.Logger
}

// HandlerDeps groups the collaborators of Handler.
type HandlerDeps struct {
	Pipeline *Pipeline
	Manager  *Manager
	Prefs    *preferences.Registry
	Recorder *speech.Recorder
	Speech   SpeechStopper
	Hub      *ws.Hub
	Tokens   TokenValidator
}

// NewHandler creates the tutor handler.
func NewHandler(deps HandlerDeps, logger zerolog.Logger) *Handler {
	return &Handler{
		pipeline: deps.Pipeline,
		convs:    deps.Manager,
		prefs:    deps.Prefs,
		recorder: deps.Recorder,
		speech:   deps.Speech,
		hub:      deps.Hub,
		tokens:   deps.Tokens,
		logger:   logger.With().Str("component", "tutor_http").Logger(),
	}
}

type transcriptView struct {
	Transcript
	Language    preferences.Language `json:"language"`
	Suggestions []string             `json:"suggestions"`
}

type sendResponse struct {
	Outcome    Outcome    `json:"outcome"`
	Transcript Transcript `json:"transcript"`
}

// Transcript handles GET /v1/tutor/transcript
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	conv, lang, ok := h.conversation(w, r)
	if !ok {
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, transcriptView{
		Transcript:  conv.Snapshot(),
		Language:    lang,
		Suggestions: Suggestions,
	})
}

// SendMessage handles POST /v1/tutor/messages. It waits for the reply.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	conv, lang, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	outcome, err := h.pipeline.SendText(detach(r.Context()), conv, req.Text, lang)
	h.respondOutcome(w, conv, outcome, err)
}

// SendVoice handles POST /v1/tutor/voice. The body is the recorded clip;
// ?encoding= and ?sample_rate= describe it.
func (h *Handler) SendVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	conv, lang, ok := h.conversation(w, r)
	if !ok {
		return
	}

	encoding := r.URL.Query().Get("encoding")
	if encoding == "" {
		encoding = "WEBM_OPUS"
	}
	rate, _ := strconv.Atoi(r.URL.Query().Get("sample_rate"))

	var clip speech.Clip
	err := h.recorder.WithCapture(conv.Learner(), encoding, rate, func(c *speech.Capture) error {
		if _, err := io.Copy(c, r.Body); err != nil {
			return err
		}
		var err error
		clip, err = c.Stop()
		return err
	})
	switch {
	case errors.Is(err, speech.ErrCaptureBusy):
		httperrors.RespondConflict(w, httperrors.ErrCodeCaptureBusy, "A recording is already in progress")
		return
	case errors.Is(err, speech.ErrClipTooLarge):
		httperrors.RespondError(w, http.StatusRequestEntityTooLarge, httperrors.ErrCodeClipTooLarge, "Recording is too long")
		return
	case err != nil:
		h.logger.Warn().Err(err).Str("learner_id", conv.Learner().String()).Msg("failed to read voice upload")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Could not read recording")
		return
	}

	outcome, err := h.pipeline.SendVoice(detach(r.Context()), conv, clip, lang)
	h.respondOutcome(w, conv, outcome, err)
}

// Clear handles POST /v1/tutor/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	conv, lang, ok := h.conversation(w, r)
	if !ok {
		return
	}
	if h.speech != nil {
		h.speech.Stop(conv.Learner())
	}

	httperrors.RespondJSON(w, http.StatusOK, h.pipeline.Clear(conv, lang))
}

func (h *Handler) respondOutcome(w http.ResponseWriter, conv *Conversation, outcome Outcome, err error) {
	if errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrEmptyClip) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeEmptyMessage, err.Error())
		return
	}
	if !outcome.Accepted {
		httperrors.RespondConflict(w, httperrors.ErrCodeTutorBusy, "The tutor is still answering")
		return
	}
	// Pipeline failures are already in the transcript as an apology.
	httperrors.RespondJSON(w, http.StatusOK, sendResponse{Outcome: outcome, Transcript: conv.Snapshot()})
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) (*Conversation, preferences.Language, bool) {
	learner, ok := auth.LearnerFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return nil, "", false
	}
	lang := h.prefs.For(r.Context(), learner).Language()
	return h.convs.Conversation(learner, lang), lang, true
}

// detach keeps request values but not cancellation: a request that reached
// the model settles in the transcript even if the client hangs up.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

