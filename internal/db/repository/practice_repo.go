package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spotlight2/coach/internal/db/queries"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type practiceStore interface {
	InsertPracticeResult(ctx context.Context, arg queries.InsertPracticeResultParams) (queries.PracticeResult, error)
	ListPracticeResults(ctx context.Context, arg queries.ListPracticeResultsParams) ([]queries.PracticeResult, error)
}

// PracticeRepository stores completed practice sessions.
type PracticeRepository struct {
	store practiceStore
}

// NewPracticeRepository wraps Queries for practice results.
func NewPracticeRepository(store practiceStore) *PracticeRepository {
	return &PracticeRepository{store: store}
}

// Record inserts a finished session.
func (r *PracticeRepository) Record(ctx context.Context, params queries.InsertPracticeResultParams) (queries.PracticeResult, error) {
	return r.store.InsertPracticeResult(ctx, params)
}

// ListForLearner returns results newest first. Out-of-range limits are clamped.
func (r *PracticeRepository) ListForLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]queries.PracticeResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return r.store.ListPracticeResults(ctx, queries.ListPracticeResultsParams{
		LearnerID: PGUUID(learnerID),
		Limit:     int32(limit),
	})
}
