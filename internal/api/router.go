package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openbench/phasebridge/internal/config"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(loop Loop, store config.Store, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{loop: loop, events: bus, store: store}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/bridge", h.getBridge)
		r.Put("/mode", h.setMode)
		r.Patch("/legs/{leg}", h.setLeg)
		r.Patch("/duty/{phase}", h.setDuty)
		r.Put("/driver", h.setDriver)
		r.Post("/console", h.runConsole)

		r.Get("/config", h.getConfig)
		r.Patch("/config", h.setConfig)

		// SSE
		r.Get("/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for bench network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
