package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingGenerator struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]int // remaining failures per donation id
	done     chan struct{}
}

func newRecordingGenerator() *recordingGenerator {
	return &recordingGenerator{
		failures: map[string]int{},
		done:     make(chan struct{}, 16),
	}
}

func (g *recordingGenerator) Generate(ctx context.Context, donationID string) error {
	g.mu.Lock()
	g.calls = append(g.calls, donationID)
	remaining := g.failures[donationID]
	if remaining > 0 {
		g.failures[donationID] = remaining - 1
		g.mu.Unlock()
		return errors.New("storage unavailable")
	}
	g.mu.Unlock()
	g.done <- struct{}{}
	return nil
}

func (g *recordingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for generation")
	}
}

func TestReceiptWorker_ProcessesScheduledJobs(t *testing.T) {
	gen := newRecordingGenerator()
	w := NewReceiptWorker(gen, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Schedule("don_1")
	w.Schedule("don_2")

	waitFor(t, gen.done)
	waitFor(t, gen.done)
	assert.Equal(t, 2, gen.callCount())
}

func TestReceiptWorker_RetriesTransientFailure(t *testing.T) {
	gen := newRecordingGenerator()
	gen.failures["don_1"] = 2 // fails twice, succeeds on third attempt
	w := NewReceiptWorker(gen, 8)
	w.retryDelay = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Schedule("don_1")

	waitFor(t, gen.done)
	assert.Equal(t, 3, gen.callCount())
}

func TestReceiptWorker_ScheduleNeverBlocksWhenFull(t *testing.T) {
	gen := newRecordingGenerator()
	w := NewReceiptWorker(gen, 1)
	// Worker not started: the queue cannot drain.

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Schedule("don_overflow")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a full queue")
	}
}

func TestReceiptWorker_StopsOnContextCancel(t *testing.T) {
	gen := newRecordingGenerator()
	w := NewReceiptWorker(gen, 8)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	cancel()

	stopped := make(chan struct{})
	go func() {
		w.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
