package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cloudstatus/cloudstatus/internal/api/models"
	"github.com/cloudstatus/cloudstatus/internal/api/response"
	"github.com/cloudstatus/cloudstatus/internal/history"
)

// DefaultHistoryLimit is used when the limit parameter is absent.
const DefaultHistoryLimit = 20

// HistoryLister lists recorded cycles, newest first.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// HistoryHandler serves recorded refresh cycles.
type HistoryHandler struct {
	repo HistoryLister
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(repo HistoryLister) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// List handles GET /v1/history?limit=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > history.MaxListLimit {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(history.MaxListLimit),
				Code:    "out_of_range",
			}})
			return
		}
		limit = n
	}

	if h.repo == nil {
		response.JSON(w, r, http.StatusOK, models.NewHistoryResponse(nil, limit))
		return
	}

	entries, err := h.repo.List(r.Context(), limit)
	if errors.Is(err, history.ErrInvalidLimit) {
		response.BadRequest(w, r, "invalid limit", nil)
		return
	}
	if err != nil {
		response.InternalError(w, r, "failed to load history")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewHistoryResponse(entries, limit))
}
