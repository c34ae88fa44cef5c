package tutor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conversation is one learner's transcript plus its request state.
//
// At most one request is in flight. Each clear bumps the generation; a
// request only writes back if the generation it started under is current.
type Conversation struct {
	learner uuid.UUID

	mu         sync.Mutex
	messages   []Message
	state      State
	generation uint64
	revision   uint64
	cancel     context.CancelFunc
	pendingID  uuid.UUID
	userMsgID  uuid.UUID
}

// NewConversation opens a transcript with one assistant message.
func NewConversation(learner uuid.UUID, opening string) *Conversation {
	return &Conversation{
		learner:  learner,
		messages: []Message{assistantMessage(opening)},
		state:    StateIdle,
	}
}

// Learner owning the conversation.
func (c *Conversation) Learner() uuid.UUID { return c.learner }

// Snapshot copies the transcript.
func (c *Conversation) Snapshot() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the request state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) snapshotLocked() Transcript {
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return Transcript{
		Learner:    c.learner,
		State:      c.state,
		Generation: c.generation,
		Revision:   c.revision,
		Messages:   msgs,
	}
}

// begin moves an idle conversation to pending. userText, when set, is
// appended as the learner's message ahead of the placeholder. It returns
// false if a request is already in flight.
func (c *Conversation) begin(parent context.Context, userText string, timeout time.Duration) (context.Context, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePending {
		return nil, 0, false
	}

	if userText != "" {
		msg := userMessage(userText)
		c.messages = append(c.messages, msg)
		c.userMsgID = msg.ID
	} else {
		c.userMsgID = uuid.Nil
	}
	placeholder := Message{ID: uuid.New(), Sender: SenderAssistant, Timestamp: now(), Pending: true}
	c.messages = append(c.messages, placeholder)
	c.pendingID = placeholder.ID
	c.state = StatePending
	c.revision++

	ctx, cancel := context.WithTimeout(parent, timeout)
	c.cancel = cancel
	return ctx, c.generation, true
}

// rewriteUser replaces the text of the message added by begin. Used once a
// voice clip has been transcribed.
func (c *Conversation) rewriteUser(gen uint64, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.userMsgID == uuid.Nil {
		return false
	}
	for i := range c.messages {
		if c.messages[i].ID == c.userMsgID {
			c.messages[i].Text = text
			c.revision++
			return true
		}
	}
	return false
}

// dropUser removes the message added by begin.
func (c *Conversation) dropUser(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.userMsgID == uuid.Nil {
		return
	}
	out := c.messages[:0]
	for _, m := range c.messages {
		if m.ID != c.userMsgID {
			out = append(out, m)
		}
	}
	c.messages = out
	c.userMsgID = uuid.Nil
	c.revision++
}

// finish replaces the placeholder with reply and settles the state. It
// reports false when gen is stale, in which case nothing changes.
func (c *Conversation) finish(gen uint64, reply Message, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StatePending {
		return false
	}

	for i := range c.messages {
		if c.messages[i].ID == c.pendingID {
			c.messages[i] = reply
			break
		}
	}
	c.state = state
	c.pendingID = uuid.Nil
	c.userMsgID = uuid.Nil
	c.revision++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}

// reset cancels any in-flight request and leaves a single greeting.
func (c *Conversation) reset(greeting string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.revision++
	c.messages = []Message{assistantMessage(greeting)}
	c.state = StateIdle
	c.pendingID = uuid.Nil
	c.userMsgID = uuid.Nil
}

// note appends an assistant message without touching the request state.
func (c *Conversation) note(text string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := assistantMessage(text)
	c.revision++
	if c.state == StatePending {
		// keep the placeholder last
		last := len(c.messages) - 1
		c.messages = append(c.messages[:last], msg, c.messages[last])
	} else {
		c.messages = append(c.messages, msg)
	}
	return msg
}

func assistantMessage(text string) Message {
	return Message{ID: uuid.New(), Text: text, Sender: SenderAssistant, Timestamp: now()}
}

func userMessage(text string) Message {
	return Message{ID: uuid.New(), Text: text, Sender: SenderUser, Timestamp: now()}
}
