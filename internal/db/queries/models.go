package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Learner struct {
	LearnerID   pgtype.UUID
	DisplayName string
	CreatedAt   pgtype.Timestamptz
	LastSeenAt  pgtype.Timestamptz
}

type PracticeResult struct {
	ResultID      pgtype.UUID
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
