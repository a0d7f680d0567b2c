package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/remindly/remindly-api/internal/api"
	apiMiddleware "github.com/remindly/remindly-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	noteHandler := api.NewNoteHandler(app.noteService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/notes", noteHandler.ListNotes)
		r.Post("/notes", noteHandler.CreateNote)
		r.Get("/notes/{id}", noteHandler.GetNote)
		r.Put("/notes/{id}", noteHandler.UpdateNote)
		r.Delete("/notes/{id}", noteHandler.DeleteNote)

		r.Post("/notes/{id}/reminder", noteHandler.ScheduleReminder)
		r.Delete("/notes/{id}/reminder", noteHandler.CancelReminder)

		r.Get("/tags", noteHandler.ListTags)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
