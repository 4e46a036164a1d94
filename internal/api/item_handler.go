package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service/quiz"
	"github.com/phrazzld/vocab-api/internal/service/study"
	"github.com/phrazzld/vocab-api/internal/service/vocab"
	"github.com/phrazzld/vocab-api/internal/store"
)

// List paging bounds
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ItemHandler serves /api/items.
type ItemHandler struct {
	items  vocab.Service
	runner study.Runner
	quiz   quiz.Service
	logger *slog.Logger
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(items vocab.Service, runner study.Runner, quizzes quiz.Service, log *slog.Logger) *ItemHandler {
	if log == nil {
		panic("logger cannot be nil for ItemHandler")
	}
	return &ItemHandler{
		items:  items,
		runner: runner,
		quiz:   quizzes,
		logger: log.With(slog.String("component", "item_handler")),
	}
}

// CreateItem handles POST /api/items.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}
	var req CreateItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.items.Create(r.Context(), userID, req.input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}

// ListItems handles GET /api/items. Query parameters: category, mastery,
// q, limit, offset.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := store.ItemFilter{
		UserID:   userID,
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}
	if m := q.Get("mastery"); m != "" {
		level, err := domain.ParseMasteryLevel(m)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		filter.Mastery = level
	}

	limit, err := shared.QueryInt(r, "limit", defaultListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := shared.QueryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	filter.Limit = max(1, min(limit, maxListLimit))
	filter.Offset = offset

	items, err := h.items.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items")
		return
	}

	resp := ItemListResponse{Items: make([]ItemResponse, 0, len(items)), Limit: filter.Limit, Offset: filter.Offset}
	for _, it := range items {
		resp.Items = append(resp.Items, itemToResponse(it))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetItem handles GET /api/items/{id}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	item, err := h.items.Get(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// UpdateItem handles PUT /api/items/{id}.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.items.Update(r.Context(), userID, itemID, req.input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// DeleteItem handles DELETE /api/items/{id}.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), userID, itemID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetItem handles POST /api/items/{id}/reset.
func (h *ItemHandler) ResetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	item, err := h.items.Reset(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// ReviewItem handles POST /api/items/{id}/review, a review outside any
// study session.
func (h *ItemHandler) ReviewItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.runner.ReviewItem(r.Context(), userID, itemID, *req.Quality)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to review item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(res))
}

// Quiz handles GET /api/items/{id}/quiz. Query parameters: options,
// direction.
func (h *ItemHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	options, err := shared.QueryInt(r, "options", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	direction, err := quiz.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	question, err := h.quiz.Generate(r.Context(), userID, itemID, options, direction)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate quiz")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, question)
}

// QuizAnswer handles POST /api/items/{id}/quiz/answer. It grades an answer
// without touching the item's schedule.
func (h *ItemHandler) QuizAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req QuizAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	direction, err := quiz.ParseDirection(req.Direction)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.quiz.Check(r.Context(), userID, itemID, direction, req.Answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}
