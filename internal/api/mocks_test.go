package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/service/quiz"
	"github.com/phrazzld/vocab-api/internal/service/study"
	"github.com/phrazzld/vocab-api/internal/service/vocab"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/mock"
)

type mockVocabService struct{ mock.Mock }

func (m *mockVocabService) Create(ctx context.Context, userID uuid.UUID, in vocab.CreateInput) (*domain.VocabItem, error) {
	args := m.Called(ctx, userID, in)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

func (m *mockVocabService) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error) {
	args := m.Called(ctx, userID, itemID)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

func (m *mockVocabService) List(ctx context.Context, filter store.ItemFilter) ([]*domain.VocabItem, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]*domain.VocabItem)
	return list, args.Error(1)
}

func (m *mockVocabService) Update(ctx context.Context, userID, itemID uuid.UUID, in vocab.UpdateInput) (*domain.VocabItem, error) {
	args := m.Called(ctx, userID, itemID, in)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

func (m *mockVocabService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *mockVocabService) Reset(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error) {
	args := m.Called(ctx, userID, itemID)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Start(ctx context.Context, userID uuid.UUID, mode domain.StudyMode, limit int) (*domain.StudySession, error) {
	args := m.Called(ctx, userID, mode, limit)
	s, _ := args.Get(0).(*domain.StudySession)
	return s, args.Error(1)
}

func (m *mockRunner) Current(ctx context.Context, userID, sessionID uuid.UUID) (*domain.VocabItem, *domain.StudySession, error) {
	args := m.Called(ctx, userID, sessionID)
	it, _ := args.Get(0).(*domain.VocabItem)
	s, _ := args.Get(1).(*domain.StudySession)
	return it, s, args.Error(2)
}

func (m *mockRunner) Answer(ctx context.Context, userID, sessionID, itemID uuid.UUID, quality int) (*study.AnswerResult, error) {
	args := m.Called(ctx, userID, sessionID, itemID, quality)
	res, _ := args.Get(0).(*study.AnswerResult)
	return res, args.Error(1)
}

func (m *mockRunner) Finish(ctx context.Context, userID, sessionID uuid.UUID) (domain.SessionSummary, error) {
	args := m.Called(ctx, userID, sessionID)
	s, _ := args.Get(0).(domain.SessionSummary)
	return s, args.Error(1)
}

func (m *mockRunner) ReviewItem(ctx context.Context, userID, itemID uuid.UUID, quality int) (*study.AnswerResult, error) {
	args := m.Called(ctx, userID, itemID, quality)
	res, _ := args.Get(0).(*study.AnswerResult)
	return res, args.Error(1)
}

type mockQuizService struct{ mock.Mock }

func (m *mockQuizService) Generate(ctx context.Context, userID, itemID uuid.UUID, optionCount int, direction quiz.Direction) (*quiz.Question, error) {
	args := m.Called(ctx, userID, itemID, optionCount, direction)
	q, _ := args.Get(0).(*quiz.Question)
	return q, args.Error(1)
}

func (m *mockQuizService) Check(ctx context.Context, userID, itemID uuid.UUID, direction quiz.Direction, answer string) (*quiz.Result, error) {
	args := m.Called(ctx, userID, itemID, direction, answer)
	res, _ := args.Get(0).(*quiz.Result)
	return res, args.Error(1)
}

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) HandleEvent(ctx context.Context, event *events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockProgressService) RecordSession(ctx context.Context, s domain.SessionSummary) ([]domain.Achievement, error) {
	args := m.Called(ctx, s)
	a, _ := args.Get(0).([]domain.Achievement)
	return a, args.Error(1)
}

func (m *mockProgressService) Summary(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.ProgressSummary)
	return p, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser injects userID as the authenticated user, standing in for the
// auth middleware.
func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), userID)))
		})
	}
}

type testAPI struct {
	router   chi.Router
	vocab    *mockVocabService
	runner   *mockRunner
	quiz     *mockQuizService
	progress *mockProgressService
}

func newTestAPI(userID uuid.UUID) *testAPI {
	a := &testAPI{
		vocab:    &mockVocabService{},
		runner:   &mockRunner{},
		quiz:     &mockQuizService{},
		progress: &mockProgressService{},
	}
	items := NewItemHandler(a.vocab, a.runner, a.quiz, discardLogger())
	sessions := NewSessionHandler(a.runner, discardLogger())
	progress := NewProgressHandler(a.progress, discardLogger())

	r := chi.NewRouter()
	if userID != uuid.Nil {
		r.Use(asUser(userID))
	}
	r.Route("/api/items", func(r chi.Router) {
		r.Post("/", items.CreateItem)
		r.Get("/", items.ListItems)
		r.Get("/{id}", items.GetItem)
		r.Put("/{id}", items.UpdateItem)
		r.Delete("/{id}", items.DeleteItem)
		r.Post("/{id}/reset", items.ResetItem)
		r.Post("/{id}/review", items.ReviewItem)
		r.Get("/{id}/quiz", items.Quiz)
		r.Post("/{id}/quiz/answer", items.QuizAnswer)
	})
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", sessions.StartSession)
		r.Get("/{id}/current", sessions.CurrentItem)
		r.Post("/{id}/answers", sessions.SubmitAnswer)
		r.Post("/{id}/finish", sessions.FinishSession)
	})
	r.Get("/api/progress", progress.GetProgress)
	a.router = r
	return a
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
