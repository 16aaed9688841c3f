package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	// RunWorker controls whether this instance runs the consumer loop.
	// Instances with RunWorker false may still schedule and cancel jobs.
	RunWorker bool

	// WorkerCount determines how many concurrent workers execute due jobs.
	WorkerCount int

	// PollInterval is how often the consumer polls the store for due jobs.
	PollInterval time.Duration

	// BatchSize caps how many due jobs one poll claims.
	BatchSize int

	// MaxAttempts bounds how often a failing job is retried before it is
	// given up on (logged, not surfaced).
	MaxAttempts int

	// RetryBackoff is the fixed delay before a failed job runs again.
	RetryBackoff time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		RunWorker:    true,
		WorkerCount:  2,
		PollInterval: 5 * time.Second,
		BatchSize:    20,
		MaxAttempts:  3,
		RetryBackoff: 30 * time.Second,
	}
}

// Scheduler schedules durable delayed work and, when configured as a worker
// instance, runs the consumer loop that executes due jobs. The consumer is
// started at most once per process and is decoupled from request handling;
// Schedule and Cancel are plain round-trips to the store.
type Scheduler struct {
	store  JobStore
	config SchedulerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	startOnce  sync.Once
	ctx        context.Context
	cancelFunc context.CancelFunc
	jobChan    chan *Job
	wg         sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(store JobStore, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:      store,
		config:     config,
		logger:     logger.With(slog.String("component", "scheduler")),
		handlers:   make(map[string]HandlerFunc),
		ctx:        ctx,
		cancelFunc: cancel,
		jobChan:    make(chan *Job, config.BatchSize),
	}
}

// RegisterHandler registers the consumer invoked for due jobs of the given
// kind. Registration must happen before Start.
func (s *Scheduler) RegisterHandler(kind string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = fn
}

// Schedule enqueues one unit of work under the given dedupe key. If a unit
// with that key is already outstanding it is atomically replaced. Returns the
// job handle callers pass to Cancel.
func (s *Scheduler) Schedule(
	ctx context.Context,
	dedupeKey, kind string,
	payload any,
	runAt time.Time,
) (uuid.UUID, error) {
	s.mu.RLock()
	_, known := s.handlers[kind]
	s.mu.RUnlock()
	if !known {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &Job{
		ID:        uuid.New(),
		DedupeKey: dedupeKey,
		Kind:      kind,
		Payload:   payloadBytes,
		RunAt:     runAt,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.store.Upsert(ctx, job)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrSchedulerUnavailable, err)
	}

	s.logger.Debug("job scheduled",
		"job_id", id,
		"dedupe_key", dedupeKey,
		"kind", kind,
		"run_at", runAt)

	return id, nil
}

// Cancel removes a not-yet-fired job. Cancellation is advisory: a job that
// already fired or was already removed is not an error, and an in-flight
// execution is not interrupted.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Cancel(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrSchedulerUnavailable, err)
	}

	s.logger.Debug("job canceled", "job_id", id)
	return nil
}

// Start launches the consumer loop and workers. It is a no-op on instances
// configured without the worker flag, and safe to call more than once: the
// loop starts at most once per process.
func (s *Scheduler) Start() error {
	if !s.config.RunWorker {
		s.logger.Info("scheduler consumer disabled on this instance")
		return nil
	}

	var startErr error
	s.startOnce.Do(func() {
		// Jobs stuck in processing from a previous run were interrupted by a
		// crash; hand them back to the poller.
		reset, err := s.store.ResetProcessing(s.ctx)
		if err != nil {
			startErr = fmt.Errorf("failed to recover interrupted jobs: %w", err)
			return
		}
		if reset > 0 {
			s.logger.Info("recovered interrupted jobs", "count", reset)
		}

		for i := 0; i < s.config.WorkerCount; i++ {
			s.wg.Add(1)
			go s.worker(i)
		}

		s.wg.Add(1)
		go s.pollLoop()

		s.logger.Info("scheduler consumer started",
			"worker_count", s.config.WorkerCount,
			"poll_interval", s.config.PollInterval)
	})

	return startErr
}

// Stop gracefully shuts down the consumer loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// pollLoop periodically claims due jobs from the store and feeds the workers.
func (s *Scheduler) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			jobs, err := s.store.ClaimDue(s.ctx, time.Now().UTC(), s.config.BatchSize)
			if err != nil {
				s.logger.Error("failed to claim due jobs", "error", err)
				continue
			}

			for _, job := range jobs {
				select {
				case s.jobChan <- job:
				case <-s.ctx.Done():
					return
				}
			}
		}
	}
}

// worker executes claimed jobs from the channel.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("stopping worker", "worker_id", id)
			return

		case job := <-s.jobChan:
			s.processJob(job, id)
		}
	}
}

// processJob handles execution of a single claimed job, including the bounded
// retry policy. Failures never propagate past this point: after MaxAttempts
// the job is marked failed and dropped, logged but not surfaced.
func (s *Scheduler) processJob(job *Job, workerID int) {
	ctx := context.Background()
	log := s.logger.With(
		"job_id", job.ID,
		"dedupe_key", job.DedupeKey,
		"kind", job.Kind,
		"attempt", job.Attempts,
		"worker_id", workerID,
	)

	s.mu.RLock()
	handler, ok := s.handlers[job.Kind]
	s.mu.RUnlock()

	if !ok {
		log.Error("no handler for due job")
		if err := s.store.MarkFailed(ctx, job.ID, ErrNoHandler.Error()); err != nil {
			log.Error("failed to mark job failed", "error", err)
		}
		return
	}

	log.Debug("executing job")

	err := handler(ctx, job)
	if err == nil {
		if updateErr := s.store.MarkCompleted(ctx, job.ID); updateErr != nil {
			log.Error("failed to mark job completed", "error", updateErr)
		}
		return
	}

	log.Error("job execution failed", "error", err)

	if job.Attempts >= s.config.MaxAttempts {
		log.Warn("job retry budget exhausted, giving up")
		if updateErr := s.store.MarkFailed(ctx, job.ID, err.Error()); updateErr != nil {
			log.Error("failed to mark job failed", "error", updateErr)
		}
		return
	}

	retryAt := time.Now().UTC().Add(s.config.RetryBackoff)
	if updateErr := s.store.Reschedule(ctx, job.ID, retryAt, err.Error()); updateErr != nil {
		log.Error("failed to reschedule job for retry", "error", updateErr)
	}
}
