package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service/study"
)

// SessionHandler serves /api/sessions.
type SessionHandler struct {
	runner study.Runner
	logger *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(runner study.Runner, log *slog.Logger) *SessionHandler {
	if log == nil {
		panic("logger cannot be nil for SessionHandler")
	}
	return &SessionHandler{
		runner: runner,
		logger: log.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /api/sessions. It answers 204 when nothing is
// new or due.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}
	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := h.runner.Start(r.Context(), userID, domain.StudyMode(req.Mode), req.Limit)
	if errors.Is(err, study.ErrNothingToStudy) {
		log.Debug("nothing to study", slog.String("mode", req.Mode))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(sess))
}

// CurrentItem handles GET /api/sessions/{id}/current.
func (h *SessionHandler) CurrentItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	item, sess, err := h.runner.Current(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get current item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CurrentItemResponse{
		Session: sessionToResponse(sess),
		Item:    itemToResponse(item),
	})
}

// SubmitAnswer handles POST /api/sessions/{id}/answers.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.runner.Answer(r.Context(), userID, sessionID, req.ItemID, *req.Quality)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(res))
}

// FinishSession handles POST /api/sessions/{id}/finish.
func (h *SessionHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	summary, err := h.runner.Finish(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to finish study session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
