package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spotlight2/coach/internal/db/queries"
)

type learnerStore interface {
	CreateLearner(ctx context.Context, displayName string) (queries.Learner, error)
	GetLearnerByID(ctx context.Context, learnerID pgtype.UUID) (queries.Learner, error)
	TouchLearner(ctx context.Context, learnerID pgtype.UUID) error
}

// LearnerRepository exposes learner persistence to the auth flows.
type LearnerRepository struct {
	store learnerStore
}

// NewLearnerRepository wraps Queries for learner operations.
func NewLearnerRepository(store learnerStore) *LearnerRepository {
	return &LearnerRepository{store: store}
}

// Create inserts a guest learner.
func (r *LearnerRepository) Create(ctx context.Context, displayName string) (queries.Learner, error) {
	return r.store.CreateLearner(ctx, displayName)
}

// GetByID fetches a learner.
func (r *LearnerRepository) GetByID(ctx context.Context, learnerID uuid.UUID) (queries.Learner, error) {
	return r.store.GetLearnerByID(ctx, PGUUID(learnerID))
}

// Touch records that the learner was seen.
func (r *LearnerRepository) Touch(ctx context.Context, learnerID uuid.UUID) error {
	return r.store.TouchLearner(ctx, PGUUID(learnerID))
}

// PGUUID converts a uuid.UUID into its pgtype form.
func PGUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// UUID converts a pgtype.UUID back; invalid values map to uuid.Nil.
func UUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}
