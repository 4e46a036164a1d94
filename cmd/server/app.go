package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/platform/gemini"
	"github.com/phrazzld/vocab-api/internal/platform/postgres"
	"github.com/phrazzld/vocab-api/internal/platform/reminder"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/service/enrichment"
	"github.com/phrazzld/vocab-api/internal/service/progress"
	"github.com/phrazzld/vocab-api/internal/service/quiz"
	"github.com/phrazzld/vocab-api/internal/service/study"
	"github.com/phrazzld/vocab-api/internal/service/vocab"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/phrazzld/vocab-api/internal/task"
)

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore     store.UserStore
	itemStore     store.ItemStore
	sessionStore  store.SessionStore
	progressStore store.ProgressStore
	taskStore     task.TaskStore

	jwtService      auth.JWTService
	passwordHasher  auth.PasswordHasher
	srsService      srs.Service
	vocabService    vocab.Service
	studyRunner     study.Runner
	quizService     quiz.Service
	progressService progress.Service

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	reminderJob  *reminder.Job
}

// newApplication wires stores, services and background workers. The task
// runner and reminder job are started before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.passwordHasher = auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.itemStore = postgres.NewPostgresItemStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.progressStore = postgres.NewPostgresProgressStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	params, err := srs.NewParams(srs.ParamsConfig{
		CorrectnessThreshold: cfg.SRS.CorrectnessThreshold,
		FirstInterval:        cfg.SRS.FirstInterval,
		SecondInterval:       cfg.SRS.SecondInterval,
		MaxInterval:          cfg.SRS.MaxInterval,
		MinEaseFactor:        cfg.SRS.MinEaseFactor,
		InitialEaseFactor:    cfg.SRS.InitialEaseFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid srs parameters: %w", err)
	}
	app.srsService, err = srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	registry := task.NewRegistry()
	app.taskRunner = task.NewTaskRunner(app.taskStore, registry, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	app.vocabService, err = vocab.NewService(db, app.itemStore, app.srsService, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vocab service: %w", err)
	}
	app.studyRunner = study.NewRunner(db, app.userStore, app.itemStore, app.sessionStore, app.srsService,
		app.eventEmitter, cfg.Study, logger)
	app.quizService = quiz.NewService(app.itemStore, cfg.Study, nil, logger)

	app.progressService, err = progress.NewService(db, app.progressStore, app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress service: %w", err)
	}
	app.eventEmitter.RegisterHandler(events.TypeSessionCompleted, app.progressService)

	if err := app.setupEnrichment(ctx, registry); err != nil {
		return nil, err
	}

	notifier := reminder.NewLogNotifier(logger)
	registry.Register(task.TaskTypeReminder, reminder.Factory(notifier))
	app.reminderJob = reminder.NewJob(app.itemStore, app.taskRunner, notifier, cfg.Reminder, logger)

	// factories must be registered before Start recovers stored tasks
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	if err := app.reminderJob.Start(); err != nil {
		app.taskRunner.Stop()
		return nil, fmt.Errorf("failed to start reminder job: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// setupEnrichment wires example-sentence generation for new items. It is a
// no-op when no LLM API key is configured.
func (app *application) setupEnrichment(ctx context.Context, registry *task.Registry) error {
	if !app.config.LLM.Enabled() {
		app.logger.Info("example enrichment disabled: no LLM API key configured")
		return nil
	}

	generator, err := gemini.NewGeminiGenerator(ctx, app.logger, app.config.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	enricher, err := enrichment.NewEnricher(app.db, app.itemStore, generator, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create enricher: %w", err)
	}

	registry.Register(task.TaskTypeEnrichment, enrichment.Factory(enricher))
	app.eventEmitter.RegisterHandler(events.TypeItemCreated,
		task.NewEventHandler(enrichment.BuildFunc(enricher), app.taskRunner, app.logger))

	app.logger.Info("example enrichment enabled", slog.String("model", app.config.LLM.ModelName))
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work before closing the database.
func (app *application) cleanup() {
	if app.reminderJob != nil {
		app.reminderJob.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", redact.Attr(err))
		}
	}
	app.logger.Info("application shutdown completed")
}
