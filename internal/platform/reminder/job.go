package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/task"
)

// DueCounter counts due items per user.
type DueCounter interface {
	CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)
}

// Job submits reminder tasks once a day.
type Job struct {
	counter   DueCounter
	submitter task.Submitter
	notifier  Notifier
	cfg       config.ReminderConfig
	logger    *slog.Logger
	now       func() time.Time

	scheduler *gocron.Scheduler
}

// NewJob creates a reminder job. It does not run until Start.
func NewJob(
	counter DueCounter,
	submitter task.Submitter,
	notifier Notifier,
	cfg config.ReminderConfig,
	log *slog.Logger,
) *Job {
	if log == nil {
		log = slog.Default()
	}
	return &Job{
		counter:   counter,
		submitter: submitter,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "reminder_job")),
		now:       func() time.Time { return time.Now().UTC() },
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the daily run at cfg.Time (UTC).
func (j *Job) Start() error {
	if !j.cfg.Enabled {
		j.logger.Info("reminder job disabled")
		return nil
	}

	j.scheduler.SingletonModeAll()
	_, err := j.scheduler.Every(1).Day().At(j.cfg.Time).Do(func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error("reminder run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	j.scheduler.StartAsync()
	j.logger.Info("reminder job scheduled", slog.String("time_utc", j.cfg.Time))
	return nil
}

// Stop stops the scheduler. Runs already in progress finish.
func (j *Job) Stop() {
	j.scheduler.Stop()
}

// RunOnce counts due items and submits a reminder task per user with
// anything due. It returns the number of tasks submitted. A failed
// submission is logged and does not stop the run.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	counts, err := j.counter.CountDueByUser(ctx, j.now())
	if err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}

	submitted := 0
	for userID, n := range counts {
		if n <= 0 {
			continue
		}
		t, err := NewTask(userID, n, j.notifier)
		if err != nil {
			j.logger.Error("failed to create reminder task",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := j.submitter.Submit(ctx, t); err != nil {
			j.logger.Error("failed to submit reminder task",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			continue
		}
		submitted++
	}

	j.logger.Info("reminder run completed",
		slog.Int("users_with_due_items", len(counts)),
		slog.Int("tasks_submitted", submitted))
	return submitted, nil
}
