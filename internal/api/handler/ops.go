package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cloudstatus/cloudstatus/internal/api/models"
	"github.com/cloudstatus/cloudstatus/internal/api/response"
	"github.com/cloudstatus/cloudstatus/internal/provider/resilience"
	"github.com/cloudstatus/cloudstatus/internal/status"
)

// StatsProvider exposes refresher counters.
type StatsProvider interface {
	StatsSnapshot() map[string]interface{}
}

// FeedHealthReporter reports the health of upstream feed clients.
type FeedHealthReporter interface {
	GetAllHealth() []*resilience.FeedHealth
}

// OpsConfig configures the OpsHandler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	SourceName string
	Store      StateLoader
	Stats      StatsProvider
	Feeds      FeedHealthReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// first cycle has been published.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	state := currentState(h.cfg.Store)
	if !state.Loaded() {
		response.ServiceUnavailable(w, r, "first refresh cycle has not completed")
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"cycle":       state.Cycle,
			"refreshedAt": models.Timestamp(state.RefreshedAt),
		},
	})
}

// SystemStatus handles GET /v1/ops/status - refresher and feed health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	state := currentState(h.cfg.Store)

	resp := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Version:    h.cfg.Version,
		Source:     h.cfg.SourceName,
		Refresher:  map[string]interface{}{},
		Subsystems: []models.SubsystemStatus{refresherSubsystem(state)},
		Feeds:      []models.FeedStatus{},
	}
	if h.cfg.Stats != nil {
		resp.Refresher = h.cfg.Stats.StatsSnapshot()
	}
	if h.cfg.Feeds != nil {
		for _, fh := range h.cfg.Feeds.GetAllHealth() {
			resp.Feeds = append(resp.Feeds, feedStatus(fh))
		}
	}

	for _, sub := range resp.Subsystems {
		resp.Status = worst(resp.Status, sub.Status)
	}
	for _, feed := range resp.Feeds {
		resp.Status = worst(resp.Status, feed.Status)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func refresherSubsystem(state *status.DashboardState) models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "refresher", Status: models.HealthStatusOK}
	if !state.Loaded() {
		detail := "waiting for first cycle"
		sub.Status = models.HealthStatusDegraded
		sub.Detail = &detail
		return sub
	}
	failed := 0
	for _, snap := range state.Providers {
		if snap.Status == status.StatusError {
			failed++
		}
	}
	if failed > 0 {
		detail := strconv.Itoa(failed) + " provider(s) in error"
		sub.Status = models.HealthStatusDegraded
		sub.Detail = &detail
	}
	return sub
}

func feedStatus(fh *resilience.FeedHealth) models.FeedStatus {
	fs := models.FeedStatus{
		Name:                fh.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        fh.CircuitState.String(),
		ConsecutiveFailures: int(fh.Counts.ConsecutiveFailures),
	}
	if fh.LastSuccessAt != nil {
		fs.LastSuccessAt = models.TimestampPtr(*fh.LastSuccessAt)
	}
	if fh.LastFailureAt != nil {
		fs.LastFailureAt = models.TimestampPtr(*fh.LastFailureAt)
	}
	switch {
	case fh.IsUnhealthy():
		fs.Status = models.HealthStatusFail
	case fh.IsDegraded():
		fs.Status = models.HealthStatusDegraded
	}
	if fh.LastError != "" {
		msg := fh.LastError
		fs.Message = &msg
	}
	return fs
}

var healthRank = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if healthRank[b] > healthRank[a] {
		return b
	}
	return a
}
