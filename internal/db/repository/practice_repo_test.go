package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/spotlight2/coach/internal/db/queries"
)

type mockPracticeStore struct {
	mock.Mock
}

func (m *mockPracticeStore) InsertPracticeResult(ctx context.Context, arg queries.InsertPracticeResultParams) (queries.PracticeResult, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.PracticeResult), args.Error(1)
}

func (m *mockPracticeStore) ListPracticeResults(ctx context.Context, arg queries.ListPracticeResultsParams) ([]queries.PracticeResult, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]queries.PracticeResult), args.Error(1)
}

func TestPracticeRepository_Record(t *testing.T) {
	store := new(mockPracticeStore)
	repo := NewPracticeRepository(store)

	params := queries.InsertPracticeResultParams{
		LearnerID:   uuidFromByte(1),
		SessionID:   uuidFromByte(2),
		PracticeRef: "grammar/some-any",
		Title:       "Some vs Any",
		Score:       2,
		Total:       3,
		Verdict:     "passed",
	}
	expect := queries.PracticeResult{ResultID: uuidFromByte(9), Score: 2, Total: 3, Verdict: "passed"}
	store.On("InsertPracticeResult", mock.Anything, params).Return(expect, nil)

	got, err := repo.Record(context.Background(), params)

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestPracticeRepository_ListForLearnerClampsLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int32
	}{
		{"default", 0, 50},
		{"negative", -3, 50},
		{"within", 10, 10},
		{"capped", 1000, 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(mockPracticeStore)
			repo := NewPracticeRepository(store)
			id := uuid.New()

			store.On("ListPracticeResults", mock.Anything, queries.ListPracticeResultsParams{
				LearnerID: PGUUID(id),
				Limit:     tc.want,
			}).Return([]queries.PracticeResult{}, nil)

			_, err := repo.ListForLearner(context.Background(), id, tc.limit)
			assert.NoError(t, err)
			store.AssertExpectations(t)
		})
	}
}
