// internal/app/features/tracks/download.go
package tracks

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/policy/trackpolicy"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tracks/{trackID}/download                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	trackID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "trackID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad track id", err, "That track doesn't exist.", "/library")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tracks := trackstore.New(h.DB)

	track, err := tracks.GetByID(ctx, trackID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderForbidden(w, r, "That track doesn't exist.", "/library")
			return
		}
		h.ErrLog.LogServerError(w, r, "database error loading track", err, "A database error occurred.", "/library")
		return
	}

	// Membership is re-checked here, right before bytes leave the server.
	allowed, err := trackpolicy.CanAccessGroup(ctx, h.DB, userID, track.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking membership", err, "A database error occurred.", "/library")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "You're not a member of this track's group.", "/library")
		return
	}

	if err := tracks.IncrementPlays(ctx, trackID); err != nil {
		h.Log.Warn("increment plays failed", zap.Error(err), zap.String("track_id", trackID.Hex()))
	}

	filename := sanitizeFilename(track.Title)
	contentDisposition := "attachment; filename=\"" + filename + "\""

	// Prevent browser caching of downloads
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	// Local storage serves the file directly
	if localStorage, ok := h.Storage.(*storage.Local); ok {
		fullPath, err := localStorage.GetFullPath(track.FilePath)
		if err != nil {
			h.Log.Error("error getting file path",
				zap.Error(err),
				zap.String("path", track.FilePath))
			uierrors.RenderServerError(w, r, "Failed to locate file.", "/library")
			return
		}
		w.Header().Set("Content-Disposition", contentDisposition)
		http.ServeFile(w, r, fullPath)
		return
	}

	// For S3/other storage, generate signed URL and redirect
	signedURL, err := h.Storage.PresignedURL(ctx, track.FilePath, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: contentDisposition,
	})
	if err != nil {
		h.Log.Error("error generating signed URL",
			zap.Error(err),
			zap.String("path", track.FilePath))
		uierrors.RenderServerError(w, r, "Failed to generate download link.", "/library")
		return
	}

	http.Redirect(w, r, signedURL, http.StatusSeeOther)
}
