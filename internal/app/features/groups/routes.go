// internal/app/features/groups/routes.go
package groups

import (
	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/new", h.ServeNew)
		pr.Get("/{groupID}", h.ServeDetail)
	})

	return r
}
