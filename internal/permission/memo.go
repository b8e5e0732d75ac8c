package permission

import (
	"context"
	"sync"
)

type memoKey struct{}

type memo struct {
	mu   sync.Mutex
	sets map[int64]Set
}

// WithMemo gives ctx a request-scoped store so each user's set is resolved
// at most once while the request runs.
func WithMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(memoKey{}).(*memo); ok {
		return ctx
	}
	return context.WithValue(ctx, memoKey{}, &memo{sets: make(map[int64]Set)})
}

func memoFrom(ctx context.Context) *memo {
	m, _ := ctx.Value(memoKey{}).(*memo)
	return m
}

func (m *memo) get(userID int64) (Set, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[userID]
	return s, ok
}

func (m *memo) put(userID int64, s Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[userID] = s
}

func (m *memo) forget(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, userID)
}

// ForgetInRequest drops a memoized set so a write made during the request
// is visible to later checks in the same request.
func ForgetInRequest(ctx context.Context, userID int64) {
	if m := memoFrom(ctx); m != nil {
		m.forget(userID)
	}
}

// ResetInRequest drops every memoized set, used after a role's contents
// change and any holder may be affected.
func ResetInRequest(ctx context.Context) {
	if m := memoFrom(ctx); m != nil {
		m.mu.Lock()
		clear(m.sets)
		m.mu.Unlock()
	}
}
