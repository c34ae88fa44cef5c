package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	cases := []struct {
		score, total int
		want         Verdict
	}{
		{5, 5, VerdictMastery},
		{3, 5, VerdictPassed},
		{2, 4, VerdictPassed},
		{1, 4, VerdictRoomToGrow},
		{0, 3, VerdictRoomToGrow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Grade(tc.score, tc.total), "%d/%d", tc.score, tc.total)
	}
}

func TestSummarize(t *testing.T) {
	qs := []Question{
		{Prompt: "1", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Prompt: "2", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Prompt: "3", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Prompt: "4", Options: []string{"a", "b"}, CorrectIndex: 0},
	}
	s, err := Start(qs)
	require.NoError(t, err)

	for _, pick := range []int{0, 1, 0} {
		s, _, err = s.Submit(pick)
		require.NoError(t, err)
	}

	partial := Summarize(s)
	assert.Equal(t, 3, partial.Answered)
	assert.Empty(t, partial.Verdict)

	s, _, err = s.Submit(0)
	require.NoError(t, err)

	sum := Summarize(s)
	assert.Equal(t, 3, sum.Score)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.LongestStreak)
	assert.InDelta(t, 0.75, sum.Accuracy, 1e-9)
	assert.Equal(t, VerdictPassed, sum.Verdict)
}
