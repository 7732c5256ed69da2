// Package session holds the per-call conversation state of in-progress calls.
package session

import (
	"context"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	Caller    Speaker = "caller"
	Assistant Speaker = "assistant"
)

// Turn is a single utterance. Turns are kept in arrival order.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Session is the state of one active call.
type Session struct {
	Turns []Turn `json:"turns"`

	// Fields holds structured values collected from the caller. Collection
	// currently happens through the turn history only.
	Fields map[string]string `json:"fields,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty session stamped with the current time.
func New() *Session {
	now := time.Now()
	return &Session{
		Fields:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a turn to the end of the history.
func (s *Session) Append(speaker Speaker, text string) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text})
	s.UpdatedAt = time.Now()
}

// History returns a copy of the turns that is safe to hand to another goroutine.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.Turns))
	copy(out, s.Turns)
	return out
}

// Store maps call identifiers to sessions and tracks calls that finished but
// have not yet been hung up on.
//
// The platform serializes requests for a single call, so implementations only
// need to be safe for concurrent use across different call identifiers.
type Store interface {
	// Get returns the session for callID. The bool is false when there is none.
	Get(ctx context.Context, callID string) (*Session, bool, error)

	// Set creates or replaces the session for callID.
	Set(ctx context.Context, callID string, s *Session) error

	// Delete removes the session for callID. Deleting a missing session is a no-op.
	Delete(ctx context.Context, callID string) error

	// HasCompleted reports whether callID carries a completed marker.
	HasCompleted(ctx context.Context, callID string) (bool, error)

	// MarkCompleted records that callID finished and must be hung up on next contact.
	MarkCompleted(ctx context.Context, callID string) error

	// ConsumeCompleted removes the completed marker for callID and reports
	// whether it was present. A marker is consumed at most once.
	ConsumeCompleted(ctx context.Context, callID string) (bool, error)

	// Len returns the number of active sessions.
	Len(ctx context.Context) (int, error)
}
