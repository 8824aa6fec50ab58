package service

import (
	"context"
	"sync"
)

// tableGuard ensures only one schema operation (create, truncate) runs per
// table at a time.
type tableGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks table as busy. Returns false if it already is.
func (g *tableGuard) TryLock(table string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[table]; ok {
		return false
	}
	g.running[table] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases table. Must be called after TryLock returns true.
func (g *tableGuard) Unlock(table string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, table)
	g.wg.Done()
}

// WaitAll blocks until all in-flight operations complete or ctx is cancelled.
func (g *tableGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
