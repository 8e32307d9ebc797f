package model

import (
	"context"
	"time"
)

// Session is the live workflow of one requester.
type Session struct {
	RequesterID int64
	Kind        Kind
	State       State
	Data        Data
	StartedAt   time.Time

	cancel context.CancelFunc
}

// NewSession creates a session in the first state of kind.
func NewSession(requesterID int64, kind Kind, now time.Time) *Session {
	return &Session{
		RequesterID: requesterID,
		Kind:        kind,
		State:       InitialState(kind),
		Data:        NewData(kind),
		StartedAt:   now.UTC(),
	}
}

// InitialState is where a freshly started workflow waits.
func InitialState(kind Kind) State {
	switch {
	case kind.IsBatch():
		return StateCollecting
	case kind == KindSplit:
		return StateAwaitingFile
	default:
		return StateAwaitingText
	}
}

// BindCancel attaches the cancel func of the running engine.
func (s *Session) BindCancel(cancel context.CancelFunc) {
	s.cancel = cancel
}

// Cancel stops the running engine, if any.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) IsRunning() bool {
	return s.State == StateRunning
}
