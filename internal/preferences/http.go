package preferences

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth"
	httperrors "github.com/spotlight2/coach/pkg/http/errors"
)

// HTTPHandlers serves the language preference endpoints.
type HTTPHandlers struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewHTTPHandlers creates preference handlers.
func NewHTTPHandlers(registry *Registry, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		registry: registry,
		logger:   logger.With().Str("component", "preferences_http").Logger(),
	}
}

type languageView struct {
	Language  Language `json:"language"`
	SpeechTag string   `json:"speech_tag"`
}

// Language handles GET and PUT /v1/preferences/language
func (h *HTTPHandlers) Language(w http.ResponseWriter, r *http.Request) {
	learner, ok := auth.LearnerFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	settings := h.registry.For(r.Context(), learner)

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req struct {
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
		lang, err := Parse(req.Language)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeUnsupportedLanguage, "language must be one of en, fr, ar", "language")
			return
		}
		if err := settings.Update(r.Context(), lang); err != nil {
			h.logger.Error().Err(err).Str("learner_id", learner.String()).Msg("failed to update language")
			httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodePreferenceFailed, "Could not save language")
			return
		}
	default:
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	lang := settings.Language()
	httperrors.RespondJSON(w, http.StatusOK, languageView{Language: lang, SpeechTag: lang.SpeechTag()})
}
