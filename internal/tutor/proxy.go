package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/metrics"
	"github.com/spotlight2/coach/internal/preferences"
	httperrors "github.com/spotlight2/coach/pkg/http/errors"
)

// Bodies of the /chat contract. The error field carries the text shown to
// the learner.
const (
	proxyMethodNotAllowed  = "Method not allowed"
	proxyMissingCredential = "GEMINI_API_KEY is not configured in the environment variables."
	proxyUpstreamFailure   = "The AI Brain is a bit tired. Check your API key or try again later."
	proxyEmptyMessage      = "Message is required"
)

// ChatProxy serves POST /chat: a stateless pass-through that keeps the model
// credential on the server.
type ChatProxy struct {
	responder Responder
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewChatProxy creates the proxy handler.
func NewChatProxy(responder Responder, timeout time.Duration, logger zerolog.Logger) *ChatProxy {
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	return &ChatProxy{
		responder: responder,
		timeout:   timeout,
		logger:    logger.With().Str("component", "chat_proxy").Logger(),
	}
}

type chatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// ServeHTTP handles POST /chat
func (p *ChatProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, proxyMethodNotAllowed, "")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, proxyEmptyMessage, "")
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		httperrors.RespondError(w, http.StatusBadRequest, proxyEmptyMessage, "")
		return
	}
	lang := preferences.ParseOr(req.Language, preferences.Default)

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	start := time.Now()
	reply, err := p.responder.Generate(ctx, ComposePrompt(Exchange{RequestText: text, Language: lang}))
	reply = strings.TrimSpace(reply)
	if err == nil && reply == "" {
		err = &UpstreamError{Reason: "empty reply"}
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &TimeoutError{After: p.timeout}
	}

	kind := errorKind(err)
	metrics.TutorRequests.WithLabelValues(channelProxy, kind).Inc()
	metrics.TutorLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		p.logger.Warn().Err(err).Str("kind", kind).Str("language", string(lang)).Msg("chat proxy failed")

		var missing *MissingCredentialError
		if errors.As(err, &missing) {
			httperrors.RespondError(w, http.StatusInternalServerError, proxyMissingCredential, "")
			return
		}
		httperrors.RespondError(w, http.StatusInternalServerError, proxyUpstreamFailure, "")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, chatResponse{Text: reply})
}
