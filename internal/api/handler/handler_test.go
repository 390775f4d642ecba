package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudstatus/cloudstatus/internal/api/handler"
	"github.com/cloudstatus/cloudstatus/internal/history"
	"github.com/cloudstatus/cloudstatus/internal/provider/resilience"
	"github.com/cloudstatus/cloudstatus/internal/status"
)

type failingHistory struct{}

func (failingHistory) List(context.Context, int) ([]history.Entry, error) {
	return nil, errors.New("connection refused")
}

type recordingHistory struct {
	limit int
}

func (h *recordingHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	h.limit = limit
	return nil, nil
}

type fakeFeeds []*resilience.FeedHealth

func (f fakeFeeds) GetAllHealth() []*resilience.FeedHealth { return f }

func TestHistoryHandler_RepositoryError(t *testing.T) {
	h := handler.NewHistoryHandler(failingHistory{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/history", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHistoryHandler_DefaultLimit(t *testing.T) {
	repo := &recordingHistory{}
	h := handler.NewHistoryHandler(repo)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/history", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handler.DefaultHistoryLimit, repo.limit)
}

func TestHistoryHandler_NoRepository(t *testing.T) {
	h := handler.NewHistoryHandler(nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/history?limit=5", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[],"meta":{"limit":5,"count":0}}`, rec.Body.String())
}

func TestDashboardHandler_NilStoreRendersLoading(t *testing.T) {
	h := handler.NewDashboardHandler(nil)

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading")
}

func TestDashboardHandler_ProviderUsesURLParam(t *testing.T) {
	store := status.NewStore()
	r := chi.NewRouter()
	r.Get("/v1/status/{provider}", handler.NewDashboardHandler(store).Provider)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status/oci", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Oracle Cloud"`)
	assert.Contains(t, rec.Body.String(), `"status":"Loading"`)
}

func TestAdminHandler_NoRunner(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewAdminHandler(nil, zerolog.Nop()).Refresh(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/refresh", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOpsHandler_SystemStatus_FeedHealth(t *testing.T) {
	now := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
	store := status.NewStore()
	store.Publish(&status.DashboardState{Cycle: 1, RefreshedAt: now, Providers: map[status.ProviderID]status.ProviderSnapshot{
		status.ProviderAWS: {Status: status.StatusOperational},
	}})

	h := handler.NewOpsHandler(handler.OpsConfig{
		Store: store,
		Feeds: fakeFeeds{
			{Name: "statusfeed", LastSuccessAt: &now},
		},
	})

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
	assert.Contains(t, rec.Body.String(), `"circuitState":"closed"`)
	assert.Contains(t, rec.Body.String(), `"lastSuccessAt":"2025-07-01T09:00:00Z"`)
}

func TestOpsHandler_SystemStatus_ErrorProviderDegrades(t *testing.T) {
	store := status.NewStore()
	store.Publish(&status.DashboardState{Cycle: 1, Providers: map[status.ProviderID]status.ProviderSnapshot{
		status.ProviderGCP: status.ErrorSnapshot(),
	}})

	rec := httptest.NewRecorder()
	handler.NewOpsHandler(handler.OpsConfig{Store: store}).
		SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"DEGRADED"`)
	assert.Contains(t, rec.Body.String(), "1 provider(s) in error")
}
