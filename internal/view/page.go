package view

import (
	_ "embed"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// PageTitle is the dashboard heading.
const PageTitle = "Cloud Status Dashboard"

// PageRefreshSeconds matches the refresh schedule so an open page follows it.
const PageRefreshSeconds = 300

//go:embed templates/dashboard.html
var dashboardTemplate string

var templateFuncs = template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"timestamp": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(templateFuncs).Parse(dashboardTemplate))

// Page is everything the dashboard template renders.
type Page struct {
	Title          string
	RefreshSeconds int
	Cycle          uint64
	RefreshedAt    time.Time
	Cutoff         status.Date
	Cards          []Card
}

// NewPage renders state with one card per provider in display order.
func NewPage(state *status.DashboardState) Page {
	page := Page{
		Title:          PageTitle,
		RefreshSeconds: PageRefreshSeconds,
		Cycle:          state.Cycle,
		RefreshedAt:    state.RefreshedAt,
		Cutoff:         state.Cutoff,
		Cards:          make([]Card, 0, len(status.Providers())),
	}
	for _, p := range status.Providers() {
		page.Cards = append(page.Cards, NewCard(p, state.Snapshot(p)))
	}
	return page
}

// Render writes the dashboard HTML for page.
func Render(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}
