package quiz

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spotlight2/coach/internal/curriculum"
	"github.com/spotlight2/coach/internal/db/queries"
	"github.com/spotlight2/coach/internal/db/repository"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
	held     map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{sessions: map[uuid.UUID]Session{}, held: map[uuid.UUID]bool{}}
}

func (m *memStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) Load(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) Lock(_ context.Context, id uuid.UUID) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[id] {
		return nil, ErrSessionBusy
	}
	m.held[id] = true
	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, id)
		return nil
	}, nil
}

type staticSource map[string]curriculum.PracticeSet

func (s staticSource) PracticeSet(ref string) (curriculum.PracticeSet, error) {
	if ref == "unit/1/2" {
		return curriculum.PracticeSet{}, curriculum.ErrExerciseLocked
	}
	set, ok := s[ref]
	if !ok {
		return curriculum.PracticeSet{}, curriculum.ErrUnknownPractice
	}
	return set, nil
}

type mockResults struct {
	mock.Mock
}

func (m *mockResults) Record(ctx context.Context, params queries.InsertPracticeResultParams) (queries.PracticeResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(queries.PracticeResult), args.Error(1)
}

func (m *mockResults) ListForLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]queries.PracticeResult, error) {
	args := m.Called(ctx, learnerID, limit)
	return args.Get(0).([]queries.PracticeResult), args.Error(1)
}

func testSource() staticSource {
	return staticSource{
		"grammar/some-any": {
			Ref:   "grammar/some-any",
			Title: "Some vs Any",
			Questions: []curriculum.Question{
				{Prompt: "There isn't ___ milk.", Options: []string{"some", "any"}, CorrectIndex: 1},
				{Prompt: "I'd like ___ tea.", Options: []string{"some", "any"}, CorrectIndex: 0},
			},
		},
	}
}

func newTestService(t *testing.T) (*Service, *memStore, *mockResults) {
	t.Helper()
	store := newMemStore()
	results := new(mockResults)
	return NewService(store, testSource(), results, zerolog.Nop()), store, results
}

func TestService_StartUnknownAndLocked(t *testing.T) {
	svc, _, _ := newTestService(t)
	learner := uuid.New()

	_, err := svc.Start(context.Background(), learner, "grammar/nope")
	assert.ErrorIs(t, err, curriculum.ErrUnknownPractice)

	_, err = svc.Start(context.Background(), learner, "unit/1/2")
	assert.ErrorIs(t, err, curriculum.ErrExerciseLocked)
}

func TestService_FullRunRecordsResult(t *testing.T) {
	svc, _, results := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)
	assert.Equal(t, "Some vs Any", session.Title)

	results.On("Record", mock.Anything, mock.MatchedBy(func(p queries.InsertPracticeResultParams) bool {
		return p.SessionID == repository.PGUUID(session.ID) &&
			p.LearnerID == repository.PGUUID(learner) &&
			p.Score == 2 && p.Total == 2 && p.Verdict == string(VerdictMastery)
	})).Return(queries.PracticeResult{}, nil).Once()

	session, fb, err := svc.Submit(ctx, learner, session.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.False(t, session.Complete)

	session, fb, err = svc.Submit(ctx, learner, session.ID, 1, 0)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.True(t, session.Complete)

	results.AssertExpectations(t)
}

func TestService_DuplicateSubmissionIgnored(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)

	_, _, err = svc.Submit(ctx, learner, session.ID, 0, 0)
	require.NoError(t, err)

	again, fb, err := svc.Submit(ctx, learner, session.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, fb.Ignored)
	assert.Equal(t, 1, again.CurrentIndex)
	assert.Equal(t, 0, again.Score)
}

func TestService_SubmitWhileLockedIgnored(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)

	unlock, err := store.Lock(ctx, session.ID)
	require.NoError(t, err)
	defer unlock()

	got, fb, err := svc.Submit(ctx, learner, session.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, fb.Ignored)
	assert.Equal(t, 0, got.CurrentIndex)
}

func TestService_SubmitAfterCompletion(t *testing.T) {
	svc, _, results := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()
	results.On("Record", mock.Anything, mock.Anything).Return(queries.PracticeResult{}, nil)

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, learner, session.ID, 0, 0)
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, learner, session.ID, 1, 0)
	require.NoError(t, err)

	_, _, err = svc.Submit(ctx, learner, session.ID, 2, 0)
	var invalid *InvalidSessionError
	assert.ErrorAs(t, err, &invalid)
}

func TestService_RecordFailureDoesNotFailSubmit(t *testing.T) {
	svc, _, results := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()
	results.On("Record", mock.Anything, mock.Anything).Return(queries.PracticeResult{}, assert.AnError)

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, learner, session.ID, 0, 0)
	require.NoError(t, err)

	session, _, err = svc.Submit(ctx, learner, session.ID, 1, 1)
	require.NoError(t, err)
	assert.True(t, session.Complete)
}

func TestService_OtherLearnerCannotSee(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, uuid.New(), "grammar/some-any")
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = svc.Discard(ctx, uuid.New(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_ResetAndDiscard(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	learner := uuid.New()

	session, err := svc.Start(ctx, learner, "grammar/some-any")
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, learner, session.ID, 0, 1)
	require.NoError(t, err)

	fresh, err := svc.Reset(ctx, learner, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, fresh.ID)
	assert.Equal(t, 0, fresh.CurrentIndex)
	assert.Equal(t, 0, fresh.Score)

	require.NoError(t, svc.Discard(ctx, learner, session.ID))
	loaded, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestService_History(t *testing.T) {
	svc, _, results := newTestService(t)
	learner := uuid.New()
	sessionID := uuid.New()

	results.On("ListForLearner", mock.Anything, learner, 0).Return([]queries.PracticeResult{{
		SessionID:   repository.PGUUID(sessionID),
		PracticeRef: "grammar/some-any",
		Score:       1,
		Total:       2,
		Verdict:     "passed",
	}}, nil)

	history, err := svc.History(context.Background(), learner, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sessionID, history[0].SessionID)
	assert.Equal(t, VerdictPassed, history[0].Verdict)
}
