package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/vocab-api/internal/platform/logger"
)

// ErrRunnerStopped is returned by Submit after Stop.
var ErrRunnerStopped = errors.New("task runner is stopped")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	WorkerCount int
	// QueueSize bounds the worker channel. Tasks beyond it wait in an
	// in-memory backlog in submission order.
	QueueSize int
	// StuckTaskAge is how long a task may stay in processing before the
	// monitor requeues it.
	StuckTaskAge time.Duration
	// StuckTaskCheckInterval defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists submitted tasks and executes them on a fixed pool of
// workers.
type TaskRunner struct {
	store    TaskStore
	registry *Registry
	config   TaskRunnerConfig
	logger   *slog.Logger

	taskChan chan Task
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopped  atomic.Bool

	// backlog holds tasks that did not fit in taskChan
	backlogMu sync.Mutex
	backlog   []Task

	errHandler func(task Task, err error)
}

// NewTaskRunner creates a TaskRunner. The registry rebuilds tasks found in
// the store during recovery.
func NewTaskRunner(store TaskStore, registry *Registry, config TaskRunnerConfig, log *slog.Logger) *TaskRunner {
	if store == nil {
		panic("task store cannot be nil")
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}
	if config.StuckTaskCheckInterval <= 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &TaskRunner{
		store:    store,
		registry: registry,
		config:   config,
		logger:   log.With(slog.String("component", "task_runner")),
		taskChan: make(chan Task, config.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.errHandler = func(task Task, err error) {}
	return r
}

// SetErrorHandler sets a callback invoked after a task fails.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists task and queues it for execution.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if r.stopped.Load() {
		return ErrRunnerStopped
	}
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	backlogged := r.enqueue(task)

	logger.FromContextOrDefault(ctx, r.logger).Debug("task submitted",
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Bool("backlogged", backlogged))
	return nil
}

// enqueue hands task to the workers, or appends it to the backlog when the
// channel is full. It reports whether the task was backlogged.
func (r *TaskRunner) enqueue(task Task) bool {
	r.backlogMu.Lock()
	defer r.backlogMu.Unlock()

	if len(r.backlog) == 0 {
		select {
		case r.taskChan <- task:
			return false
		default:
		}
	}
	r.backlog = append(r.backlog, task)
	return true
}

// refill moves backlogged tasks into the channel while it has room.
func (r *TaskRunner) refill() {
	r.backlogMu.Lock()
	defer r.backlogMu.Unlock()

	for len(r.backlog) > 0 {
		select {
		case r.taskChan <- r.backlog[0]:
			r.backlog[0] = nil
			r.backlog = r.backlog[1:]
		default:
			return
		}
	}
}

func (r *TaskRunner) backlogLen() int {
	r.backlogMu.Lock()
	defer r.backlogMu.Unlock()
	return len(r.backlog)
}

// Start recovers unfinished tasks and launches the workers and the stuck
// task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	r.logger.Info("task runner started", slog.Int("workers", r.config.WorkerCount))
	return nil
}

// Stop cancels running tasks and waits for the workers to exit. Tasks still
// queued or backlogged stay pending in the store.
func (r *TaskRunner) Stop() {
	if !r.stopped.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// Recover requeues pending tasks and resets tasks left in processing by a
// previous process.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		slog.Int("pending_count", len(pending)),
		slog.Int("processing_count", len(processing)))

	for _, rec := range processing {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				slog.String("task_id", rec.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		pending = append(pending, rec)
	}

	for _, rec := range pending {
		r.requeue(ctx, rec)
	}
	return nil
}

func (r *TaskRunner) requeue(ctx context.Context, rec Record) {
	log := r.logger.With(
		slog.String("task_id", rec.ID.String()),
		slog.String("task_type", rec.Type))

	t, err := r.registry.Build(rec)
	if err != nil {
		log.Error("cannot rebuild task, marking failed", slog.String("error", err.Error()))
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, err.Error()); err != nil {
			log.Error("failed to mark task failed", slog.String("error", err.Error()))
		}
		return
	}

	if r.enqueue(t) {
		log.Debug("queue is full, task backlogged")
	}
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case t := <-r.taskChan:
			r.refill()
			r.processTask(t, id)
		}
	}
}

func (r *TaskRunner) processTask(t Task, workerID int) {
	log := r.logger.With(
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("worker_id", workerID))
	ctx := logger.WithLogger(r.ctx, log)

	// status writes must survive shutdown cancellation
	statusCtx := context.WithoutCancel(ctx)

	if err := r.store.UpdateTaskStatus(statusCtx, t.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", slog.String("error", err.Error()))
		return
	}

	start := time.Now()
	err := r.execute(ctx, t)

	switch {
	case err != nil && r.ctx.Err() != nil:
		// interrupted by Stop; recovery resets it on the next start
		log.Warn("task interrupted by shutdown", slog.String("error", err.Error()))
	case err != nil:
		log.Error("task execution failed", slog.String("error", err.Error()))
		if uerr := r.store.UpdateTaskStatus(statusCtx, t.ID(), TaskStatusFailed, err.Error()); uerr != nil {
			log.Error("failed to update task status to failed", slog.String("error", uerr.Error()))
		}
		r.errHandler(t, err)
	default:
		log.Info("task completed", slog.Duration("duration", time.Since(start)))
		if uerr := r.store.UpdateTaskStatus(statusCtx, t.ID(), TaskStatusCompleted, ""); uerr != nil {
			log.Error("failed to update task status to completed", slog.String("error", uerr.Error()))
		}
	}
}

func (r *TaskRunner) execute(ctx context.Context, t Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return t.Execute(ctx)
}

func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.resetStuckTasks(r.ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", slog.String("error", err.Error()))
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", slog.Int("count", len(stuck)))
	for _, rec := range stuck {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending,
			"reset after being stuck in processing state"); err != nil {
			r.logger.Error("failed to reset stuck task status",
				slog.String("task_id", rec.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		r.requeue(ctx, rec)
	}
}
