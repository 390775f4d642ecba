package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cloudstatus/cloudstatus/internal/api/middleware"
	"github.com/cloudstatus/cloudstatus/internal/api/models"
	"github.com/cloudstatus/cloudstatus/internal/api/response"
	"github.com/cloudstatus/cloudstatus/internal/refresher"
)

// CycleRunner runs one refresh cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger refresher.Trigger) (*refresher.CycleResult, error)
}

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	runner CycleRunner
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(runner CycleRunner, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{runner: runner, logger: logger}
}

// Refresh handles POST /v1/admin/refresh - run a cycle now.
// The cycle is detached from the request so a client disconnect cannot leave
// a half-built state; the response waits for the cycle to publish.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		response.ServiceUnavailable(w, r, "refresher is not running")
		return
	}

	result, err := h.runner.RunCycle(detached(r.Context()), refresher.TriggerManual)
	if errors.Is(err, refresher.ErrCycleInProgress) {
		response.CycleInProgress(w, r)
		return
	}
	if err != nil {
		response.InternalError(w, r, "refresh failed")
		return
	}

	h.logger.Info().
		Str("operator", middleware.GetOperator(r.Context())).
		Uint64("cycle", result.Cycle).
		Int("failed", result.Failed).
		Msg("manual refresh completed")

	resp := models.RefreshResponse{
		Cycle:      result.Cycle,
		Trigger:    string(result.Trigger),
		StartedAt:  models.Timestamp(result.StartTime),
		DurationMs: result.Duration.Milliseconds(),
		Cutoff:     result.Cutoff.String(),
		Statuses:   result.Statuses,
		Failed:     result.Failed,
	}
	for _, pe := range result.Errors {
		resp.Errors = append(resp.Errors, models.RefreshError{Provider: pe.Provider, Error: pe.Error})
	}

	response.JSON(w, r, http.StatusOK, resp)
}
