package curriculum

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	httperrors "github.com/spotlight2/coach/pkg/http/errors"
)

// HTTPHandlers exposes the read-only syllabus API.
type HTTPHandlers struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewHTTPHandlers creates handlers over a loaded catalog.
func NewHTTPHandlers(catalog *Catalog, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		catalog: catalog,
		logger:  logger.With().Str("component", "curriculum_http").Logger(),
	}
}

type exerciseView struct {
	Number        int    `json:"number"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	QuestionCount int    `json:"question_count"`
	PracticeRef   string `json:"practice_ref"`
}

type unitView struct {
	Unit
	Exercises []exerciseView `json:"exercises"`
	Topics    []string       `json:"grammar_topics"`
}

type topicView struct {
	GrammarTopic
	QuestionCount int    `json:"question_count"`
	PracticeRef   string `json:"practice_ref"`
}

func (h *HTTPHandlers) unitView(u Unit) unitView {
	view := unitView{Unit: u, Exercises: make([]exerciseView, 0, len(u.Exercises)), Topics: []string{}}
	for i, ex := range u.Exercises {
		view.Exercises = append(view.Exercises, exerciseView{
			Number:        i + 1,
			Title:         ex.Title,
			Status:        ex.Status,
			QuestionCount: len(ex.Questions),
			PracticeRef:   ExerciseRef(u.ID, i+1),
		})
	}
	for _, t := range h.catalog.topics {
		if t.Unit == u.ID {
			view.Topics = append(view.Topics, t.ID)
		}
	}
	return view
}

func topicViewOf(t GrammarTopic) topicView {
	return topicView{GrammarTopic: t, QuestionCount: len(t.Practice), PracticeRef: GrammarRef(t.ID)}
}

// ListUnits handles GET /v1/units
func (h *HTTPHandlers) ListUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	units := h.catalog.Units()
	views := make([]unitView, 0, len(units))
	for _, u := range units {
		views = append(views, h.unitView(u))
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"units": views})
}

// GetUnit handles GET /v1/units/{id}
func (h *HTTPHandlers) GetUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "unit id must be a number", "id")
		return
	}
	u, ok := h.catalog.Unit(id)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnitNotFound, "Unit not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, h.unitView(u))
}

// SearchVocabulary handles GET /v1/vocabulary?q=&unit=
func (h *HTTPHandlers) SearchVocabulary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	query := VocabularyQuery{Text: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("unit"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "unit must be a number", "unit")
			return
		}
		query.UnitID = id
	}
	items := h.catalog.Vocabulary(query)
	if items == nil {
		items = []VocabularyEntry{}
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// ListGrammar handles GET /v1/grammar?category=
func (h *HTTPHandlers) ListGrammar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	topics := h.catalog.GrammarTopics(r.URL.Query().Get("category"))
	views := make([]topicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, topicViewOf(t))
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.catalog.Categories(),
		"topics":     views,
	})
}

// GetGrammar handles GET /v1/grammar/{id}
func (h *HTTPHandlers) GetGrammar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	t, ok := h.catalog.GrammarTopic(r.PathValue("id"))
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeTopicNotFound, "Grammar topic not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, topicViewOf(t))
}
