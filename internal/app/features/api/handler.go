// internal/app/features/api/handler.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the JSON surface the front end talks to. All endpoints
// authenticate via the session cookie; user IDs in request bodies are
// accepted for compatibility but must match the signed-in user.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Storage storage.Store
	BaseURL string
}

func NewHandler(db *mongo.Database, store storage.Store, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Storage: store,
		BaseURL: baseURL,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
