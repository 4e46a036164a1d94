package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service/progress"
)

// ProgressHandler serves /api/progress.
type ProgressHandler struct {
	progress progress.Service
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc progress.Service, log *slog.Logger) *ProgressHandler {
	if log == nil {
		panic("logger cannot be nil for ProgressHandler")
	}
	return &ProgressHandler{
		progress: svc,
		logger:   log.With(slog.String("component", "progress_handler")),
	}
}

// GetProgress handles GET /api/progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}
	summary, err := h.progress.Summary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
