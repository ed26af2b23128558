package itinerary

import (
	"context"
	"sync"
)

// routeLocks hands out one lock per route id. Entries are dropped when no
// operation holds or waits for them.
type routeLocks struct {
	mu    sync.Mutex
	locks map[int64]*routeLock
}

// routeLock is held by whoever managed to put a token into sem.
type routeLock struct {
	sem     chan struct{}
	waiters int
}

func newRouteLocks() *routeLocks {
	return &routeLocks{locks: make(map[int64]*routeLock)}
}

// lock blocks until the caller owns routeID or ctx is done, and returns the
// matching unlock func.
func (l *routeLocks) lock(ctx context.Context, routeID int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[routeID]
	if !ok {
		entry = &routeLock{sem: make(chan struct{}, 1)}
		l.locks[routeID] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(routeID, entry)
		return nil, ctx.Err()
	}

	return func() {
		<-entry.sem
		l.release(routeID, entry)
	}, nil
}

func (l *routeLocks) release(routeID int64, entry *routeLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.waiters--
	if entry.waiters == 0 {
		delete(l.locks, routeID)
	}
}

// size is the number of routes currently tracked.
func (l *routeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
