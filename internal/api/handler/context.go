// Package handler provides HTTP handlers for the status dashboard.
package handler

import (
	"context"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// StateLoader returns the most recently published dashboard state.
type StateLoader interface {
	Load() *status.DashboardState
}

// currentState never returns nil, so handlers can render before the store is
// wired in tests.
func currentState(loader StateLoader) *status.DashboardState {
	if loader == nil {
		return status.InitialState()
	}
	if state := loader.Load(); state != nil {
		return state
	}
	return status.InitialState()
}

func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
