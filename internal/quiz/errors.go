package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no session exists for the learner.
	ErrSessionNotFound = errors.New("practice session not found")
	// ErrSessionBusy means another submission holds the session lock.
	ErrSessionBusy = errors.New("practice session busy")
)

// InvalidSessionError reports an operation the session cannot accept:
// starting with no questions or answering after completion.
type InvalidSessionError struct {
	Reason string
}

func (e *InvalidSessionError) Error() string {
	return "invalid session: " + e.Reason
}

// InvalidAnswerError reports an option index outside the current question.
type InvalidAnswerError struct {
	Option  int
	Options int
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("option %d out of range [0,%d)", e.Option, e.Options)
}

// ContentAuthoringError reports a malformed question handed to Start.
type ContentAuthoringError struct {
	Index  int
	Reason string
}

func (e *ContentAuthoringError) Error() string {
	return fmt.Sprintf("question %d: %s", e.Index, e.Reason)
}
