// internal/app/features/api/routes.go
package api

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /api. Endpoints do their own
// auth so unauthenticated callers get a JSON 401 instead of an HTML
// login redirect.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/confirm-invite", h.HandleConfirmInvite)
	r.Get("/groups", h.HandleListGroups)
	r.Post("/groups", h.HandleCreateGroup)
	r.Post("/upload-file", h.HandleUploadFile)
	return r
}
