package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudstatus/cloudstatus/internal/api/models"
	"github.com/cloudstatus/cloudstatus/internal/api/response"
	"github.com/cloudstatus/cloudstatus/internal/status"
	"github.com/cloudstatus/cloudstatus/internal/view"
)

// DashboardHandler serves the published state as a page and as JSON.
type DashboardHandler struct {
	store StateLoader
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store StateLoader) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// Page handles GET / - the HTML dashboard.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	page := view.NewPage(currentState(h.store))
	response.HTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return view.Render(buf, page)
	})
}

// Status handles GET /v1/status - every provider card.
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.NewDashboardResponse(currentState(h.store)))
}

// Provider handles GET /v1/status/{provider}.
func (h *DashboardHandler) Provider(w http.ResponseWriter, r *http.Request) {
	id, err := status.ParseProviderID(chi.URLParam(r, "provider"))
	if err != nil {
		response.NotFound(w, r, err.Error())
		return
	}

	state := currentState(h.store)
	response.JSON(w, r, http.StatusOK, models.NewProviderResponse(id, state.Snapshot(id)))
}

// Link handles GET /v1/links?name= - resolve a display name to its status page.
func (h *DashboardHandler) Link(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		response.BadRequest(w, r, "name query parameter is required", []models.FieldError{
			{Field: "name", Message: "must not be empty", Code: "required"},
		})
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewLinkResponse(name))
}
