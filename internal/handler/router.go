package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

// NewRouter builds the full route tree: the API under /api, stored images
// under /uploads/ and a health check.
func NewRouter(h *EventHandler, logger *logrus.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS(allowedOrigins))

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.RegisterAccount)

		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/events/my-organized", h.ListOrganized)
			r.Post("/events", h.CreateEvent)
			r.Put("/events/{id}", h.UpdateEvent)
			r.Delete("/events/{id}", h.DeleteEvent)
			r.Post("/events/{id}/register", h.Register)
			r.Get("/my-tickets", h.MyTickets)
			r.Post("/upload", h.Upload)
		})
	})

	files := http.StripPrefix(service.UploadPrefix, http.FileServer(http.Dir(h.uploads.Dir())))
	r.Handle(service.UploadPrefix+"*", files)

	return r
}
