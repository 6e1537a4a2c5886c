// Package api implements the HTTP command and status API for the bridge.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/config"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	loop   Loop
	events EventBus
	store  config.Store

	cfgMu sync.Mutex // serializes config read-modify-write
}

// Loop is the interface the handlers use to reach the control loop. Handlers
// never touch the controller directly.
type Loop interface {
	Submit(ctx context.Context, cmd command.Command) (models.BridgeState, *models.AppError)
	Latest() models.Status
	Reconfigure(cfg models.Config)
}

// EventBus is the interface for subscribing to status reports.
type EventBus interface {
	Subscribe(id string) <-chan models.Status
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// phaseParam reads a phase path parameter ("a", "b" or "c").
func phaseParam(r *http.Request, name string) (phase.Phase, *models.AppError) {
	s := chi.URLParam(r, name)
	p, err := phase.ParsePhase(s)
	if err != nil {
		return 0, models.ErrNotFound("unknown " + name + " " + s)
	}
	return p, nil
}

// submit runs cmd on the loop and writes the resulting bridge state.
func (h *Handlers) submit(w http.ResponseWriter, r *http.Request, cmd command.Command) {
	st, appErr := h.loop.Submit(r.Context(), cmd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
