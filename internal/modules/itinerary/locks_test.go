package itinerary

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteLocksSerialiseSameRoute(t *testing.T) {
	locks := newRouteLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.lock(context.Background(), 1)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.size(), "idle routes are forgotten")
}

func TestRouteLocksIndependentRoutes(t *testing.T) {
	locks := newRouteLocks()
	unlockA, err := locks.lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock, err := locks.lock(context.Background(), 2)
		if assert.NoError(t, err) {
			unlock()
		}
		close(done)
	}()
	<-done
	assert.Equal(t, 1, locks.size())
}

func TestRouteLocksWaitHonoursContext(t *testing.T) {
	locks := newRouteLocks()
	unlock, err := locks.lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = locks.lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// The abandoned wait leaves the lock usable.
	unlock()
	assert.Zero(t, locks.size())
	again, err := locks.lock(context.Background(), 1)
	require.NoError(t, err)
	again()
}
