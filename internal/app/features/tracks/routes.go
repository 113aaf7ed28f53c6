// internal/app/features/tracks/routes.go
package tracks

import (
	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /tracks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/upload", h.ServeUpload)
		pr.Post("/upload", h.HandleUpload)
		pr.Get("/{trackID}/download", h.ServeDownload)
	})

	return r
}

// LibraryRoutes returns the subrouter mounted at /library.
func LibraryRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeLibrary)
	})

	return r
}
