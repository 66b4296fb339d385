package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes собирает chi-роутер API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recovery(h.logger))
	r.Use(Logging(h.logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/tasks", h.CreateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Delete("/queue", h.ClearQueue)
	})

	return r
}

// Mount регистрирует API на внешнем mux (рядом с /metrics).
func (h *Handler) Mount(mux *http.ServeMux) {
	mux.Handle("/", h.Routes())
}
