// Package tutor runs the AI tutoring chat: it owns each learner's transcript
// and drives one language-model request at a time through it.
package tutor

import (
	"time"

	"github.com/google/uuid"

	"github.com/spotlight2/coach/internal/preferences"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one transcript entry.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Pending   bool      `json:"pending,omitempty"`
}

// State is the request state of a conversation.
type State string

const (
	StateIdle     State = "idle"
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateFailed   State = "failed"
)

// Exchange is one outbound request.
type Exchange struct {
	RequestText string
	Language    preferences.Language
}

// Transcript is a point-in-time copy of a conversation. Revision grows with
// every change, so a client keeps the copy with the highest one.
type Transcript struct {
	Learner    uuid.UUID `json:"learner_id"`
	State      State     `json:"state"`
	Generation uint64    `json:"generation"`
	Revision   uint64    `json:"revision"`
	Messages   []Message `json:"messages"`
}

// Outcome reports what a send did.
type Outcome struct {
	// Accepted is false when a request was already in flight.
	Accepted bool `json:"accepted"`
	// Dropped is set when the conversation was cleared before the reply
	// arrived; the reply never reached the transcript.
	Dropped bool     `json:"dropped,omitempty"`
	Reply   *Message `json:"reply,omitempty"`
	State   State    `json:"state"`
}

var now = func() time.Time { return time.Now().UTC() }
