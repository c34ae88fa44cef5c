package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/curriculum"
	"github.com/spotlight2/coach/internal/db/queries"
	"github.com/spotlight2/coach/internal/db/repository"
	"github.com/spotlight2/coach/internal/metrics"
)

// PracticeSource resolves practice references into question sets.
type PracticeSource interface {
	PracticeSet(ref string) (curriculum.PracticeSet, error)
}

// ResultStore records finished sessions.
type ResultStore interface {
	Record(ctx context.Context, params queries.InsertPracticeResultParams) (queries.PracticeResult, error)
	ListForLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]queries.PracticeResult, error)
}

// Result is one finished session as shown on the progress page.
type Result struct {
	SessionID     uuid.UUID `json:"session_id"`
	PracticeRef   string    `json:"practice_ref"`
	Title         string    `json:"title"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	LongestStreak int       `json:"longest_streak"`
	Verdict       Verdict   `json:"verdict"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Service owns the stored practice sessions of every learner.
type Service struct {
	store   SessionStore
	source  PracticeSource
	results ResultStore
	logger  zerolog.Logger
}

// NewService wires the practice service.
func NewService(store SessionStore, source PracticeSource, results ResultStore, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		source:  source,
		results: results,
		logger:  logger.With().Str("component", "practice_service").Logger(),
	}
}

// Start opens a new session for learner over the set named by ref.
func (s *Service) Start(ctx context.Context, learner uuid.UUID, ref string) (Session, error) {
	set, err := s.source.PracticeSet(ref)
	if err != nil {
		return Session{}, err
	}

	questions := make([]Question, len(set.Questions))
	for i, q := range set.Questions {
		questions[i] = Question{Prompt: q.Prompt, Options: q.Options, CorrectIndex: q.CorrectIndex}
	}

	session, err := Start(questions)
	if err != nil {
		return Session{}, fmt.Errorf("start %s: %w", ref, err)
	}
	session.ID = uuid.New()
	session.LearnerID = learner
	session.PracticeRef = set.Ref
	session.Title = set.Title

	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.Debug().
		Str("learner_id", learner.String()).
		Str("session_id", session.ID.String()).
		Str("practice_ref", ref).
		Int("questions", len(questions)).
		Msg("practice session started")
	return session, nil
}

// Get loads a learner's session. Sessions owned by someone else are reported
// as not found.
func (s *Service) Get(ctx context.Context, learner, id uuid.UUID) (Session, error) {
	session, err := s.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session == nil || session.LearnerID != learner {
		return Session{}, ErrSessionNotFound
	}
	return *session, nil
}

// Submit answers question questionIndex with option. Duplicate submissions
// for an already answered question, or ones racing another submission, are
// ignored and return the session unchanged.
func (s *Service) Submit(ctx context.Context, learner, id uuid.UUID, questionIndex, option int) (Session, Feedback, error) {
	unlock, err := s.store.Lock(ctx, id)
	if errors.Is(err, ErrSessionBusy) {
		current, getErr := s.Get(ctx, learner, id)
		if getErr != nil {
			return Session{}, Feedback{}, getErr
		}
		return current, Feedback{QuestionIndex: questionIndex, Selected: option, Ignored: true}, nil
	}
	if err != nil {
		return Session{}, Feedback{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("failed to release practice lock")
		}
	}()

	current, err := s.Get(ctx, learner, id)
	if err != nil {
		return Session{}, Feedback{}, err
	}
	if !current.Complete && questionIndex != current.CurrentIndex {
		return current, Feedback{QuestionIndex: questionIndex, Selected: option, Ignored: true}, nil
	}

	next, fb, err := current.Submit(option)
	if err != nil {
		return current, Feedback{}, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return current, Feedback{}, fmt.Errorf("save session: %w", err)
	}

	metrics.PracticeAnswers.WithLabelValues(strconv.FormatBool(fb.Correct)).Inc()
	if next.Complete {
		s.recordCompletion(ctx, next)
	}
	return next, fb, nil
}

func (s *Service) recordCompletion(ctx context.Context, session Session) {
	summary := Summarize(session)
	metrics.PracticeCompleted.WithLabelValues(string(summary.Verdict)).Inc()

	_, err := s.results.Record(ctx, queries.InsertPracticeResultParams{
		LearnerID:     repository.PGUUID(session.LearnerID),
		SessionID:     repository.PGUUID(session.ID),
		PracticeRef:   session.PracticeRef,
		Title:         session.Title,
		Score:         int32(summary.Score),
		Total:         int32(summary.Total),
		LongestStreak: int32(summary.LongestStreak),
		Verdict:       string(summary.Verdict),
		StartedAt:     pgtype.Timestamptz{Time: session.StartedAt, Valid: true},
		CompletedAt:   pgtype.Timestamptz{Time: session.UpdatedAt, Valid: true},
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("session_id", session.ID.String()).
			Msg("failed to record practice result")
		return
	}

	s.logger.Info().
		Str("learner_id", session.LearnerID.String()).
		Str("practice_ref", session.PracticeRef).
		Int("score", summary.Score).
		Int("total", summary.Total).
		Str("verdict", string(summary.Verdict)).
		Msg("practice session completed")
}

// Reset restarts a session over the same questions.
func (s *Service) Reset(ctx context.Context, learner, id uuid.UUID) (Session, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = unlock() }()

	current, err := s.Get(ctx, learner, id)
	if err != nil {
		return Session{}, err
	}
	fresh, err := current.Reset()
	if err != nil {
		return Session{}, err
	}
	if err := s.store.Save(ctx, fresh); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return fresh, nil
}

// Discard drops a session the learner walked away from.
func (s *Service) Discard(ctx context.Context, learner, id uuid.UUID) error {
	if _, err := s.Get(ctx, learner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// History lists a learner's finished sessions, newest first.
func (s *Service) History(ctx context.Context, learner uuid.UUID, limit int) ([]Result, error) {
	rows, err := s.results.ListForLearner(ctx, learner, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, Result{
			SessionID:     repository.UUID(row.SessionID),
			PracticeRef:   row.PracticeRef,
			Title:         row.Title,
			Score:         int(row.Score),
			Total:         int(row.Total),
			LongestStreak: int(row.LongestStreak),
			Verdict:       Verdict(row.Verdict),
			StartedAt:     row.StartedAt.Time,
			CompletedAt:   row.CompletedAt.Time,
		})
	}
	return out, nil
}
