package wizard

import "sync"

// Guard allows one in-flight submission per draft key.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire claims key. It returns false if a submission for key is already running.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

// Release frees key.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.active, key)
	g.mu.Unlock()
}

// InFlight reports whether key is currently claimed.
func (g *Guard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key]
	return busy
}
