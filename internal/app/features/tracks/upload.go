// internal/app/features/tracks/upload.go
package tracks

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/policy/trackpolicy"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/normalize"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxUploadMemory caps multipart parsing memory; larger parts spill to disk.
const maxUploadMemory = 32 << 20 // 32 MiB

type uploadFormData struct {
	viewdata.BaseVM
	Groups        []models.Group
	SelectedGroup string
	Title         string
	Artist        string
	Album         string
	Genre         string
	Year          string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tracks/upload                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groupIDs, err := membershipstore.New(h.DB).GroupIDsForMember(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading memberships", err, "A database error occurred.", "/dashboard")
		return
	}
	groups, err := groupstore.New(h.DB).ListByIDs(ctx, groupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading groups", err, "A database error occurred.", "/dashboard")
		return
	}

	templates.Render(w, r, "track_upload", uploadFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Upload Track", "/library"),
		Groups:        groups,
		SelectedGroup: query.Get(r, "group_id"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tracks/upload                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart form failed", err, "Invalid upload form.", "/tracks/upload")
		return
	}

	title := normalize.Name(r.FormValue("title"))
	artist := normalize.Name(r.FormValue("artist"))
	album := normalize.Name(r.FormValue("album"))
	genre := normalize.Name(r.FormValue("genre"))
	yearStr := normalize.QueryParam(r.FormValue("year"))
	groupHex := normalize.QueryParam(r.FormValue("group_id"))

	groupID, err := primitive.ObjectIDFromHex(groupHex)
	if err != nil {
		h.reRenderUploadWithError(w, r, userID, uploadFormData{
			Title: title, Artist: artist, Album: album, Genre: genre, Year: yearStr,
		}, "Please choose a group to share with.")
		return
	}
	if title == "" || artist == "" {
		h.reRenderUploadWithError(w, r, userID, uploadFormData{
			Title: title, Artist: artist, Album: album, Genre: genre, Year: yearStr,
			SelectedGroup: groupHex,
		}, "Title and artist are required.")
		return
	}

	year := 0
	if yearStr != "" {
		if year, err = strconv.Atoi(yearStr); err != nil {
			h.reRenderUploadWithError(w, r, userID, uploadFormData{
				Title: title, Artist: artist, Album: album, Genre: genre,
				SelectedGroup: groupHex,
			}, "Year must be a number.")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reRenderUploadWithError(w, r, userID, uploadFormData{
			Title: title, Artist: artist, Album: album, Genre: genre, Year: yearStr,
			SelectedGroup: groupHex,
		}, "Please choose a file to upload.")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	// Only members may add tracks to a group.
	allowed, err := trackpolicy.CanAccessGroup(ctx, h.DB, userID, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking membership", err, "A database error occurred.", "/tracks/upload")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "You're not a member of that group.", "/groups")
		return
	}

	contentType := detectContentType(file, header)

	info, err := uploadFile(ctx, h.Storage, header.Filename, file, header.Size, contentType)
	if err != nil {
		h.Log.Error("file upload failed", zap.Error(err))
		h.reRenderUploadWithError(w, r, userID, uploadFormData{
			Title: title, Artist: artist, Album: album, Genre: genre, Year: yearStr,
			SelectedGroup: groupHex,
		}, "Failed to upload file. Please try again.")
		return
	}

	trackID := primitive.NewObjectID()
	track := models.Track{
		ID:         trackID,
		Title:      title,
		Artist:     artist,
		Album:      album,
		Genre:      genre,
		Year:       year,
		GroupID:    groupID,
		UploadedBy: userID,
		FilePath:   info.Path,
		FileURL:    h.BaseURL + "/tracks/" + trackID.Hex() + "/download",
		FileType:   info.ContentType,
		FileSize:   info.Size,
	}

	if _, err := trackstore.New(h.DB).Create(ctx, track); err != nil {
		// The blob is already in storage but its metadata row never landed;
		// remove the blob so no orphan file survives the failure.
		if delErr := h.Storage.Delete(ctx, info.Path); delErr != nil {
			h.Log.Warn("compensating blob delete failed",
				zap.Error(delErr),
				zap.String("path", info.Path))
		}
		h.ErrLog.LogServerError(w, r, "track metadata insert failed", err, "Failed to save track. Please try again.", "/tracks/upload")
		return
	}

	h.Log.Info("track uploaded",
		zap.String("track_id", trackID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("uploaded_by", userID.Hex()),
		zap.Int64("size", info.Size))

	http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
}

// detectContentType prefers the multipart header's declared type and
// falls back to sniffing the first bytes of the file. The file is
// rewound afterwards so the upload still reads from the start.
func detectContentType(file multipart.File, header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	_, _ = file.Seek(0, io.SeekStart)
	if n > 0 {
		return http.DetectContentType(buf[:n])
	}
	return "application/octet-stream"
}

// reRenderUploadWithError re-renders the upload form with a validation
// error, reloading the user's group list for the picker.
func (h *Handler) reRenderUploadWithError(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, data uploadFormData, msg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	groupIDs, err := membershipstore.New(h.DB).GroupIDsForMember(ctx, userID)
	if err == nil {
		if groups, err := groupstore.New(h.DB).ListByIDs(ctx, groupIDs); err == nil {
			data.Groups = groups
		}
	}

	data.BaseVM = viewdata.NewBaseVM(r, "Upload Track", "/library")
	data.SetError(msg)
	templates.Render(w, r, "track_upload", data)
}
