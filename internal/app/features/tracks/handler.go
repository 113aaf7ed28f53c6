// internal/app/features/tracks/handler.go
package tracks

import (
	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for track upload, download, and the
// library pages.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Storage storage.Store
	BaseURL string
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, store storage.Store, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Storage: store,
		BaseURL: baseURL,
	}
}
