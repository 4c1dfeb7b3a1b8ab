package grading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingGrader struct {
	mu    sync.Mutex
	seen  []uint
	block chan struct{}
}

func (g *recordingGrader) EvaluateAndRecord(_ context.Context, submissionID uint) error {
	if g.block != nil {
		<-g.block
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, submissionID)
	return nil
}

func (g *recordingGrader) graded() []uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uint(nil), g.seen...)
}

func TestDispatcherProcessesQueuedSubmissions(t *testing.T) {
	grader := &recordingGrader{}
	dispatcher := NewDispatcher(grader, Config{Workers: 2, QueueSize: 8, Logger: zerolog.Nop()})
	dispatcher.Start()

	require.NoError(t, dispatcher.Enqueue(1))
	require.NoError(t, dispatcher.Enqueue(2))
	require.NoError(t, dispatcher.Enqueue(3))

	dispatcher.Stop()

	require.ElementsMatch(t, []uint{1, 2, 3}, grader.graded())
}

func TestDispatcherRejectsWhenQueueFull(t *testing.T) {
	grader := &recordingGrader{block: make(chan struct{})}
	dispatcher := NewDispatcher(grader, Config{Workers: 1, QueueSize: 1, Logger: zerolog.Nop()})
	dispatcher.Start()

	// Fill the single worker and the single queue slot, then overflow.
	require.NoError(t, dispatcher.Enqueue(1))

	deadline := time.After(2 * time.Second)
	for {
		if err := dispatcher.Enqueue(2); err != nil {
			require.ErrorIs(t, err, ErrQueueFull)
			break
		}
		select {
		case <-deadline:
			t.Fatal("queue never filled")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	close(grader.block)
	dispatcher.Stop()
}

func TestDispatcherEnqueueAfterStop(t *testing.T) {
	grader := &recordingGrader{}
	dispatcher := NewDispatcher(grader, Config{Workers: 1, QueueSize: 2, Logger: zerolog.Nop()})
	dispatcher.Start()
	dispatcher.Stop()

	require.ErrorIs(t, dispatcher.Enqueue(9), ErrQueueFull)
}

func TestDispatcherEnqueueDuringStopDoesNotPanic(t *testing.T) {
	grader := &recordingGrader{}
	dispatcher := NewDispatcher(grader, Config{Workers: 2, QueueSize: 4, Logger: zerolog.Nop()})
	dispatcher.Start()

	// Hammer the queue from several goroutines while Stop closes it; a
	// send on the closed channel would panic the process.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				// ErrQueueFull is expected once Stop lands; only a panic
				// or race can fail this test.
				_ = dispatcher.Enqueue(id)
			}
		}(uint(i + 1))
	}

	dispatcher.Stop()
	wg.Wait()

	require.ErrorIs(t, dispatcher.Enqueue(99), ErrQueueFull)
}
