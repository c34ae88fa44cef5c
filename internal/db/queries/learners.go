package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createLearner = `
INSERT INTO learners (display_name)
VALUES ($1)
RETURNING learner_id, display_name, created_at, last_seen_at
`

func (q *Queries) CreateLearner(ctx context.Context, displayName string) (Learner, error) {
	row := q.db.QueryRow(ctx, createLearner, displayName)
	var i Learner
	err := row.Scan(&i.LearnerID, &i.DisplayName, &i.CreatedAt, &i.LastSeenAt)
	return i, err
}

const getLearnerByID = `
SELECT learner_id, display_name, created_at, last_seen_at
FROM learners
WHERE learner_id = $1
`

func (q *Queries) GetLearnerByID(ctx context.Context, learnerID pgtype.UUID) (Learner, error) {
	row := q.db.QueryRow(ctx, getLearnerByID, learnerID)
	var i Learner
	err := row.Scan(&i.LearnerID, &i.DisplayName, &i.CreatedAt, &i.LastSeenAt)
	return i, err
}

const touchLearner = `
UPDATE learners SET last_seen_at = now() WHERE learner_id = $1
`

func (q *Queries) TouchLearner(ctx context.Context, learnerID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, touchLearner, learnerID)
	return err
}
