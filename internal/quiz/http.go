package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth"
	"github.com/spotlight2/coach/internal/curriculum"
	httperrors "github.com/spotlight2/coach/pkg/http/errors"
)

// HTTPHandlers exposes practice sessions over REST.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates handlers for practice endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "practice_http").Logger(),
	}
}

type questionView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type sessionView struct {
	ID              uuid.UUID     `json:"id"`
	PracticeRef     string        `json:"practice_ref"`
	Title           string        `json:"title"`
	Total           int           `json:"total"`
	CurrentIndex    int           `json:"current_index"`
	Score           int           `json:"score"`
	Complete        bool          `json:"complete"`
	SelectedAnswer  *int          `json:"selected_answer,omitempty"`
	CurrentQuestion *questionView `json:"current_question,omitempty"`
	Answers         []Answer      `json:"answers"`
	Summary         *Summary      `json:"summary,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// viewOf never carries a correct index for an unanswered question.
func viewOf(s Session) sessionView {
	view := sessionView{
		ID:             s.ID,
		PracticeRef:    s.PracticeRef,
		Title:          s.Title,
		Total:          len(s.Questions),
		CurrentIndex:   s.CurrentIndex,
		Score:          s.Score,
		Complete:       s.Complete,
		SelectedAnswer: s.SelectedAnswer,
		Answers:        s.Answers,
		StartedAt:      s.StartedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if view.Answers == nil {
		view.Answers = []Answer{}
	}
	if q, ok := s.Current(); ok {
		view.CurrentQuestion = &questionView{Index: s.CurrentIndex, Prompt: q.Prompt, Options: q.Options}
	}
	if s.Complete {
		sum := Summarize(s)
		view.Summary = &sum
	}
	return view
}

// StartSession handles POST /v1/practice
func (h *HTTPHandlers) StartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, ok := auth.LearnerFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req struct {
		PracticeRef string `json:"practice_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.PracticeRef == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "practice_ref is required", "practice_ref")
		return
	}

	session, err := h.service.Start(r.Context(), learner, req.PracticeRef)
	switch {
	case err == nil:
		httperrors.RespondJSON(w, http.StatusCreated, viewOf(session))
	case errors.Is(err, curriculum.ErrUnknownPractice):
		httperrors.RespondNotFound(w, httperrors.ErrCodeInvalidPractice, "No practice set for "+req.PracticeRef)
	case errors.Is(err, curriculum.ErrExerciseLocked):
		httperrors.RespondConflict(w, httperrors.ErrCodeExerciseLocked, "This exercise is locked")
	default:
		h.logger.Error().Err(err).Str("practice_ref", req.PracticeRef).Msg("failed to start practice")
		httperrors.RespondInternalError(w, "Could not start practice")
	}
}

// GetSession handles GET /v1/practice/{id}
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, id, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), learner, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, viewOf(session))
}

// SubmitAnswer handles POST /v1/practice/{id}/answers
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, id, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		QuestionIndex *int `json:"question_index"`
		Option        *int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.QuestionIndex == nil || req.Option == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "question_index and option are required", "")
		return
	}

	session, fb, err := h.service.Submit(r.Context(), learner, id, *req.QuestionIndex, *req.Option)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": fb,
		"session":  viewOf(session),
	})
}

// ResetSession handles POST /v1/practice/{id}/reset
func (h *HTTPHandlers) ResetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, id, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := h.service.Reset(r.Context(), learner, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, viewOf(session))
}

// DiscardSession handles DELETE /v1/practice/{id}
func (h *HTTPHandlers) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, id, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Discard(r.Context(), learner, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Progress handles GET /v1/progress?limit=
func (h *HTTPHandlers) Progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	learner, ok := auth.LearnerFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "limit must be an integer", "limit")
			return
		}
		limit = n
	}

	results, err := h.service.History(r.Context(), learner, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("learner_id", learner.String()).Msg("failed to fetch progress")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeProgressFailed, "Could not load progress")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *HTTPHandlers) sessionRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	learner, ok := auth.LearnerFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Practice session not found")
		return uuid.Nil, uuid.Nil, false
	}
	return learner, id, true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error) {
	var invalidSession *InvalidSessionError
	var invalidAnswer *InvalidAnswerError

	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Practice session not found")
	case errors.Is(err, ErrSessionBusy):
		httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "Practice session is busy")
	case errors.As(err, &invalidSession):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionComplete, invalidSession.Error())
	case errors.As(err, &invalidAnswer):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidAnswer, invalidAnswer.Error(), "option")
	default:
		h.logger.Error().Err(err).Msg("practice request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSubmitFailed, "Practice request failed")
	}
}
