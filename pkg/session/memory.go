package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Sessions and completed markers live in
// sync.Maps keyed by call identifier, so unrelated calls never wait on a
// shared lock.
type MemoryStore struct {
	sessions  sync.Map // string -> *entry
	completed sync.Map // string -> time.Time
}

// entry pairs a session with the time it was last stored. Sweep reads only
// touched, never the session, which the owning request may be mutating.
type entry struct {
	sess    *Session
	touched time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, callID string) (*Session, bool, error) {
	v, ok := m.sessions.Load(callID)
	if !ok {
		return nil, false, nil
	}
	return v.(*entry).sess, true, nil
}

func (m *MemoryStore) Set(_ context.Context, callID string, s *Session) error {
	m.sessions.Store(callID, &entry{sess: s, touched: s.UpdatedAt})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, callID string) error {
	m.sessions.Delete(callID)
	return nil
}

func (m *MemoryStore) HasCompleted(_ context.Context, callID string) (bool, error) {
	_, ok := m.completed.Load(callID)
	return ok, nil
}

func (m *MemoryStore) MarkCompleted(_ context.Context, callID string) error {
	m.completed.Store(callID, time.Now())
	return nil
}

func (m *MemoryStore) ConsumeCompleted(_ context.Context, callID string) (bool, error) {
	_, ok := m.completed.LoadAndDelete(callID)
	return ok, nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n, nil
}

// Sweep removes sessions and completed markers that have been idle for longer
// than maxIdle and returns how many sessions were removed. A session's age is
// its UpdatedAt as of its last Set. Calls whose hangup notification never
// arrives would otherwise stay in memory forever.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	removed := 0

	m.sessions.Range(func(k, v any) bool {
		if v.(*entry).touched.Before(cutoff) {
			m.sessions.Delete(k)
			removed++
		}
		return true
	})

	m.completed.Range(func(k, v any) bool {
		if v.(time.Time).Before(cutoff) {
			m.completed.Delete(k)
		}
		return true
	})

	return removed
}
