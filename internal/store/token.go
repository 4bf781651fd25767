// Package store holds the session-scoped credential storage used by the
// session context. The context is the only component that reads or writes
// it.
package store

import "sync"

// TokenKey is the well-known key under which the credential is kept by
// implementations backed by a keyed store.
const TokenKey = "token"

// TokenStore persists the bearer credential for the life of one
// application session. Implementations must be safe for concurrent use.
type TokenStore interface {
	// Token returns the stored credential, or "" when absent.
	Token() string
	// SetToken replaces the stored credential.
	SetToken(token string)
	// Clear removes the stored credential.
	Clear()
}

// Memory keeps the credential in process memory. It matches the
// session-scoped storage of the original storefront: the value does not
// survive a restart.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Memory) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}
