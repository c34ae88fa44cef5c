package quiz

// Verdict labels a finished session.
type Verdict string

const (
	VerdictMastery    Verdict = "mastery"
	VerdictPassed     Verdict = "passed"
	VerdictRoomToGrow Verdict = "room_to_grow"
)

// Summary is the result card for a session.
type Summary struct {
	Score         int     `json:"score"`
	Total         int     `json:"total"`
	Answered      int     `json:"answered"`
	Accuracy      float64 `json:"accuracy"`
	LongestStreak int     `json:"longest_streak"`
	// Verdict is empty until the session is complete.
	Verdict Verdict `json:"verdict,omitempty"`
}

// Grade maps a final score onto a verdict: all correct is mastery, at least
// half is a pass.
func Grade(score, total int) Verdict {
	switch {
	case total > 0 && score == total:
		return VerdictMastery
	case score*2 >= total:
		return VerdictPassed
	default:
		return VerdictRoomToGrow
	}
}

// Summarize computes accuracy and the longest run of correct answers.
func Summarize(s Session) Summary {
	sum := Summary{
		Score:    s.Score,
		Total:    len(s.Questions),
		Answered: len(s.Answers),
	}

	streak := 0
	for _, a := range s.Answers {
		if a.Correct {
			streak++
			if streak > sum.LongestStreak {
				sum.LongestStreak = streak
			}
		} else {
			streak = 0
		}
	}
	if sum.Answered > 0 {
		sum.Accuracy = float64(s.Score) / float64(sum.Answered)
	}
	if s.Complete {
		sum.Verdict = Grade(s.Score, sum.Total)
	}
	return sum
}
