package approvals

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes state-machine operations per correlation token. The
// engine reads the current pending task and mutates it non-atomically, so two
// in-flight actions against the same instance must never interleave.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tokenLock
}

type tokenLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[uuid.UUID]*tokenLock{}}
}

// Lock acquires the mutex for the token and returns its release function.
// Entries are reference counted so the map does not grow with every token
// ever seen.
func (k *keyedMutex) Lock(token uuid.UUID) func() {
	k.mu.Lock()
	entry, ok := k.locks[token]
	if !ok {
		entry = &tokenLock{}
		k.locks[token] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, token)
		}
		k.mu.Unlock()
	}
}
