package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitGroupTimeout(t *testing.T, wg *sync.WaitGroup, within time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(within):
		t.Fatalf("timed out waiting for tasks")
	}
}

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(4, 8)
	p.Start(context.Background())
	defer p.Stop()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}

	waitGroupTimeout(t, &wg, 2*time.Second)
	assert.Equal(t, int32(50), count.Load())
}

func TestPool_SubmitDoesNotBlockWhenSaturated(t *testing.T) {
	p := NewPool(1, 1)
	p.Start(context.Background())
	defer p.Stop()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		p.Submit(func() {
			defer wg.Done()
			<-release
		})
	}

	// all three submitted without a worker being free; now let them finish
	close(release)
	waitGroupTimeout(t, &wg, 2*time.Second)
}

func TestPool_RecoversFromPanics(t *testing.T) {
	p := NewPool(1, 2)
	p.Start(context.Background())
	defer p.Stop()

	p.Submit(func() { panic("boom") })

	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not survive a panicking task")
	}
}

func TestPool_SubmitBeforeStartStillRuns(t *testing.T) {
	p := NewPool(2, 2)
	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task submitted before Start never ran")
	}
}

func TestPool_StopIsIdempotent(t *testing.T) {
	p := NewPool(2, 2)
	p.Start(context.Background())
	p.Stop()
	require.NotPanics(t, p.Stop)
}
