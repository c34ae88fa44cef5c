package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPracticeResult = `
INSERT INTO practice_results (
    learner_id, session_id, practice_ref, title, score, total, longest_streak, verdict, started_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING result_id, learner_id, session_id, practice_ref, title, score, total, longest_streak, verdict, started_at, completed_at
`

type InsertPracticeResultParams struct {
	LearnerID     pgtype.UUID
	SessionID     pgtype.UUID
	PracticeRef   string
	Title         string
	Score         int32
	Total         int32
	LongestStreak int32
	Verdict       string
	StartedAt     pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
}

func (q *Queries) InsertPracticeResult(ctx context.Context, arg InsertPracticeResultParams) (PracticeResult, error) {
	row := q.db.QueryRow(ctx, insertPracticeResult,
		arg.LearnerID,
		arg.SessionID,
		arg.PracticeRef,
		arg.Title,
		arg.Score,
		arg.Total,
		arg.LongestStreak,
		arg.Verdict,
		arg.StartedAt,
		arg.CompletedAt,
	)
	var i PracticeResult
	err := row.Scan(
		&i.ResultID,
		&i.LearnerID,
		&i.SessionID,
		&i.PracticeRef,
		&i.Title,
		&i.Score,
		&i.Total,
		&i.LongestStreak,
		&i.Verdict,
		&i.StartedAt,
		&i.CompletedAt,
	)
	return i, err
}

const listPracticeResults = `
SELECT result_id, learner_id, session_id, practice_ref, title, score, total, longest_streak, verdict, started_at, completed_at
FROM practice_results
WHERE learner_id = $1
ORDER BY completed_at DESC
LIMIT $2
`

type ListPracticeResultsParams struct {
	LearnerID pgtype.UUID
	Limit     int32
}

func (q *Queries) ListPracticeResults(ctx context.Context, arg ListPracticeResultsParams) ([]PracticeResult, error) {
	rows, err := q.db.Query(ctx, listPracticeResults, arg.LearnerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PracticeResult
	for rows.Next() {
		var i PracticeResult
		if err := rows.Scan(
			&i.ResultID,
			&i.LearnerID,
			&i.SessionID,
			&i.PracticeRef,
			&i.Title,
			&i.Score,
			&i.Total,
			&i.LongestStreak,
			&i.Verdict,
			&i.StartedAt,
			&i.CompletedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
