package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/5olen-tripshare/accommodation-api/internal/adapter/http/middleware"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/metrics"
)

// NewRouter wires the accommodation routes. Reads are public except the
// owner-scoped and unfiltered listings; every write requires authentication.
func NewRouter(h *AccommodationHandler, jwtSecret string, mm *metrics.Manager, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Tracing("accommodation-api"))
	mux.Use(middleware.RequestLogger(log))
	if mm != nil {
		mux.Use(middleware.Metrics(mm))
	}

	mux.Route("/api/accommodations", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/search", h.HandleSearch)
		r.Get("/{id}", h.HandleGetByID)

		r.Group(func(auth chi.Router) {
			auth.Use(middleware.JWTAuth(jwtSecret, log))

			auth.Get("/all", h.HandleListAll)
			auth.Get("/user", h.HandleListByOwner)
			auth.Post("/", h.HandleCreate)
			auth.Put("/{id}", h.HandleUpdate)
			auth.Patch("/{id}", h.HandlePartialUpdate)
			auth.Delete("/{id}", h.HandleDelete)
		})
	})

	return mux
}
