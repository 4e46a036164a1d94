package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocab-api/internal/api"
	apiMiddleware "github.com/phrazzld/vocab-api/internal/api/middleware"
)

// setupRouter builds the chi router with every public and authenticated
// route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordHasher, app.config.Auth, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	itemHandler := api.NewItemHandler(app.vocabService, app.studyRunner, app.quizService, app.logger)
	sessionHandler := api.NewSessionHandler(app.studyRunner, app.logger)
	progressHandler := api.NewProgressHandler(app.progressService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/items", itemHandler.CreateItem)
			r.Get("/items", itemHandler.ListItems)
			r.Get("/items/{id}", itemHandler.GetItem)
			r.Put("/items/{id}", itemHandler.UpdateItem)
			r.Delete("/items/{id}", itemHandler.DeleteItem)
			r.Post("/items/{id}/reset", itemHandler.ResetItem)
			r.Post("/items/{id}/review", itemHandler.ReviewItem)
			r.Get("/items/{id}/quiz", itemHandler.Quiz)
			r.Post("/items/{id}/quiz/answer", itemHandler.QuizAnswer)

			r.Post("/sessions", sessionHandler.StartSession)
			r.Get("/sessions/{id}/current", sessionHandler.CurrentItem)
			r.Post("/sessions/{id}/answers", sessionHandler.SubmitAnswer)
			r.Post("/sessions/{id}/finish", sessionHandler.FinishSession)

			r.Get("/progress", progressHandler.GetProgress)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
