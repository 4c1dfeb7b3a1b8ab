package grading

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/observability"
)

// ErrQueueFull is returned when the grading queue cannot accept more work.
var ErrQueueFull = errors.New("grading queue is full")

// Grader evaluates a pending submission and records the outcome.
type Grader interface {
	EvaluateAndRecord(ctx context.Context, submissionID uint) error
}

// Dispatcher runs AI grading asynchronously behind a bounded queue so the
// submission endpoint can acknowledge immediately.
type Dispatcher struct {
	grader  Grader
	queue   chan uint
	workers int
	timeout time.Duration
	logger  zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once

	// mu serialises Enqueue against Stop so nothing sends on the queue
	// after it is closed.
	mu      sync.Mutex
	stopped bool
}

// Config tunes the dispatcher.
type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single grading run, including the upstream AI call.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewDispatcher constructs a stopped dispatcher; call Start to spawn workers.
func NewDispatcher(grader Grader, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &Dispatcher{
		grader:  grader,
		queue:   make(chan uint, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With().Str("component", "grading_dispatcher").Logger(),
	}
}

// Start spawns the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("grading dispatcher started")
}

// Enqueue schedules a submission for grading. It never blocks: when the
// queue is full or the dispatcher stopped the caller marks the submission
// as failed instead.
func (d *Dispatcher) Enqueue(submissionID uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrQueueFull
	}

	select {
	case d.queue <- submissionID:
		observability.GradingQueueDepth().Set(float64(len(d.queue)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight grading to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for submissionID := range d.queue {
		observability.GradingQueueDepth().Set(float64(len(d.queue)))

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.grader.EvaluateAndRecord(ctx, submissionID)
		cancel()

		if err != nil {
			observability.GradingProcessed().WithLabelValues("error").Inc()
			d.logger.Error().Err(err).
				Int("worker", id).
				Uint("submission_id", submissionID).
				Msg("grading failed")
			continue
		}

		observability.GradingProcessed().WithLabelValues("graded").Inc()
		d.logger.Info().
			Int("worker", id).
			Uint("submission_id", submissionID).
			Msg("submission graded")
	}
}
