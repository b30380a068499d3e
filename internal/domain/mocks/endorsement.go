package mocks

import (
	"context"
	"sync"
)

// EndorsementPlatform is a mock implementation of
// ports.EndorsementPlatform.
type EndorsementPlatform struct {
	mu sync.Mutex

	// Endorsed maps "handle/namespace" to the configured answer.
	Endorsed map[string]bool
	// Err, when set, is returned by Query.
	Err error
	// Queries counts platform calls, for cache assertions.
	Queries int
}

// NewEndorsementPlatform creates a new mock platform.
func NewEndorsementPlatform() *EndorsementPlatform {
	return &EndorsementPlatform{Endorsed: make(map[string]bool)}
}

// SetEndorsed configures the answer for a handle/namespace pair.
func (m *EndorsementPlatform) SetEndorsed(handle, namespace string, endorsed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Endorsed[handle+"/"+namespace] = endorsed
}

// Query returns the configured answer or error.
func (m *EndorsementPlatform) Query(_ context.Context, handle, namespace string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries++
	if m.Err != nil {
		return false, m.Err
	}
	return m.Endorsed[handle+"/"+namespace], nil
}
