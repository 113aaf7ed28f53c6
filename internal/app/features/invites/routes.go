// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// Routes returns the invite subrouter. The route is public on purpose:
// the handler itself decides whether to bounce the visitor to login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeInvite)
	return r
}
