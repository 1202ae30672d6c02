package engine

import "sync"

// lockRegistry guards against two concurrent cycles for the same bot.
type lockRegistry struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{held: make(map[string]bool)}
}

// TryAcquire takes the bot's lock. Returns false without blocking when
// another cycle already holds it.
func (r *lockRegistry) TryAcquire(botID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.held[botID] {
		return false
	}
	r.held[botID] = true
	return true
}

// Release frees the bot's lock.
func (r *lockRegistry) Release(botID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, botID)
}
