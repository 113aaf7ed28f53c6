// internal/app/features/api/upload.go
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadMemory = 32 << 20 // 32 MiB

type uploadResponse struct {
	FilePath string `json:"filePath"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	FileName string `json:"fileName"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/upload-file                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUploadFile stores a raw multipart file and returns its storage
// coordinates. The caller is expected to follow up with track metadata;
// this endpoint only lands the blob.
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	_, _, _, ok := authz.UserCtx(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	contentType := sniffContentType(file, header)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	now := time.Now().UTC()
	path := fmt.Sprintf("tracks/%04d/%02d/%s-%s",
		now.Year(), now.Month(),
		uuid.New().String()[:8],
		filepath.Base(header.Filename))

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.Storage.Put(ctx, path, file, opts); err != nil {
		h.Log.Error("api upload failed", zap.Error(err), zap.String("path", path))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FilePath: path,
		FileURL:  h.BaseURL + "/files/" + path,
		FileType: contentType,
		FileSize: header.Size,
		FileName: header.Filename,
	})
}

func sniffContentType(file multipart.File, header *multipart.FileHeader) string {
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
