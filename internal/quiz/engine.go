// Package quiz runs learners through fixed multiple-choice practice sets.
//
// The engine works on values: every transition returns a new Session and
// leaves the receiver untouched, so the service can persist or discard
// the result freely.
package quiz

import (
	"time"

	"github.com/google/uuid"
)

// Question is an immutable multiple-choice item.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Answer records one submission.
type Answer struct {
	QuestionIndex int       `json:"question_index"`
	Selected      int       `json:"selected"`
	Correct       bool      `json:"correct"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// Session is a learner's progress through one practice set.
//
// Invariants: 0 <= CurrentIndex <= len(Questions), Score <= CurrentIndex,
// Complete iff CurrentIndex == len(Questions).
type Session struct {
	ID          uuid.UUID  `json:"id"`
	LearnerID   uuid.UUID  `json:"learner_id"`
	PracticeRef string     `json:"practice_ref"`
	Title       string     `json:"title"`
	Questions   []Question `json:"questions"`

	CurrentIndex int  `json:"current_index"`
	Score        int  `json:"score"`
	Complete     bool `json:"complete"`
	// SelectedAnswer is the option picked for the most recently answered
	// question; nil before the first answer and after a reset.
	SelectedAnswer *int     `json:"selected_answer,omitempty"`
	Answers        []Answer `json:"answers"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feedback describes the outcome of a single submission.
type Feedback struct {
	QuestionIndex int  `json:"question_index"`
	Selected      int  `json:"selected"`
	CorrectIndex  int  `json:"correct_index"`
	Correct       bool `json:"correct"`
	// Ignored is set when the submission was a duplicate for an already
	// answered question. The session is returned unchanged.
	Ignored bool `json:"ignored,omitempty"`
}

var now = func() time.Time { return time.Now().UTC() }

// Start opens a session over questions. Malformed questions fail fast.
func Start(questions []Question) (Session, error) {
	if len(questions) == 0 {
		return Session{}, &InvalidSessionError{Reason: "no questions"}
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return Session{}, &ContentAuthoringError{Index: i, Reason: "fewer than two options"}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return Session{}, &ContentAuthoringError{Index: i, Reason: "correct index outside options"}
		}
	}

	ts := now()
	return Session{
		Questions: cloneQuestions(questions),
		Answers:   []Answer{},
		StartedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Current returns the question awaiting an answer.
func (s Session) Current() (Question, bool) {
	if s.Complete || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Submit answers the current question with option and advances.
func (s Session) Submit(option int) (Session, Feedback, error) {
	q, ok := s.Current()
	if !ok {
		return s, Feedback{}, &InvalidSessionError{Reason: "session already complete"}
	}
	if option < 0 || option >= len(q.Options) {
		return s, Feedback{}, &InvalidAnswerError{Option: option, Options: len(q.Options)}
	}

	fb := Feedback{
		QuestionIndex: s.CurrentIndex,
		Selected:      option,
		CorrectIndex:  q.CorrectIndex,
		Correct:       option == q.CorrectIndex,
	}

	next := s
	next.Answers = make([]Answer, len(s.Answers), len(s.Answers)+1)
	copy(next.Answers, s.Answers)

	ts := now()
	next.Answers = append(next.Answers, Answer{
		QuestionIndex: s.CurrentIndex,
		Selected:      option,
		Correct:       fb.Correct,
		AnsweredAt:    ts,
	})
	if fb.Correct {
		next.Score++
	}
	selected := option
	next.SelectedAnswer = &selected
	next.CurrentIndex++
	next.Complete = next.CurrentIndex == len(next.Questions)
	next.UpdatedAt = ts
	return next, fb, nil
}

// Reset is Start over the same questions, keeping identity fields.
func (s Session) Reset() (Session, error) {
	fresh, err := Start(s.Questions)
	if err != nil {
		return s, err
	}
	fresh.ID = s.ID
	fresh.LearnerID = s.LearnerID
	fresh.PracticeRef = s.PracticeRef
	fresh.Title = s.Title
	return fresh, nil
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	for i, q := range in {
		out[i] = Question{
			Prompt:       q.Prompt,
			Options:      append([]string(nil), q.Options...),
			CorrectIndex: q.CorrectIndex,
		}
	}
	return out
}
