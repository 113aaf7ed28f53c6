package tracks_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/features/tracks"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	"github.com/soundcircle/soundcircle/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newUploadHandler(db *mongo.Database, mem *storage.Memory) *tracks.Handler {
	return tracks.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), mem, "http://localhost:8080", zap.NewNop())
}

// uploadRequest builds a multipart POST to /tracks/upload with the given
// form fields plus a file part, authenticated as user.
func uploadRequest(t *testing.T, fields map[string]string, filename string, content []byte, user testutil.TestUser) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %q: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/tracks/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, user)
}

func TestHandleUpload_StoresBlobAndMetadata(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	uploader := fx.CreateUser(ctx, "Uploader", "uploader@test.com")
	group := fx.CreateGroup(ctx, "Crate Diggers", uploader.ID)
	fx.AddMember(ctx, group.ID, uploader.ID)

	mem := storage.NewMemory(storage.MemoryConfig{})
	handler := newUploadHandler(db, mem)

	req := uploadRequest(t, map[string]string{
		"title":    "Night Drive",
		"artist":   "The Commuters",
		"album":    "Rush Hour",
		"group_id": group.ID.Hex(),
	}, "night-drive.mp3", []byte("ID3 fake mp3 payload"), testutil.UserWithID(uploader.ID, uploader.FullName, uploader.Email))
	rec := testutil.NewRecorder()

	handler.HandleUpload(rec, req)

	rec.AssertRedirect(t, "/groups/"+group.ID.Hex())

	rows, err := trackstore.New(db).ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 track after upload, got %d", len(rows))
	}
	got := rows[0]
	if got.Title != "Night Drive" || got.Artist != "The Commuters" {
		t.Errorf("track metadata: got %q / %q", got.Title, got.Artist)
	}
	if got.UploadedBy != uploader.ID {
		t.Errorf("uploaded_by: got %s, want %s", got.UploadedBy.Hex(), uploader.ID.Hex())
	}
	if got.FilePath == "" {
		t.Fatal("expected a storage path on the track row")
	}
	if !strings.HasSuffix(got.FileURL, "/tracks/"+got.ID.Hex()+"/download") {
		t.Errorf("file URL: got %q", got.FileURL)
	}

	result, err := mem.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("expected 1 stored object, got %d", len(result.Objects))
	}
	if result.Objects[0].Path != got.FilePath {
		t.Errorf("blob path: got %q, want %q", result.Objects[0].Path, got.FilePath)
	}
}

func TestHandleUpload_NonMemberGetsNoBlob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Group Owner", "owner@test.com")
	group := fx.CreateGroup(ctx, "Crate Diggers", owner.ID)
	fx.AddMember(ctx, group.ID, owner.ID)
	outsider := fx.CreateUser(ctx, "Outsider", "outsider@test.com")

	mem := storage.NewMemory(storage.MemoryConfig{})
	handler := newUploadHandler(db, mem)

	req := uploadRequest(t, map[string]string{
		"title":    "Sneak In",
		"artist":   "Nobody",
		"group_id": group.ID.Hex(),
	}, "sneak.mp3", []byte("mp3 bytes"), testutil.UserWithID(outsider.ID, outsider.FullName, outsider.Email))
	rec := testutil.NewRecorder()

	// Handler will try to render a template which may panic without initialized templates
	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.HandleUpload(rec, req)
	}()

	rows, err := trackstore.New(db).ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no tracks for a non-member upload, got %d", len(rows))
	}
	if mem.Count() != 0 {
		t.Errorf("expected no stored blobs for a non-member upload, got %d", mem.Count())
	}
}

func TestHandleUpload_DeletesBlobWhenInsertFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	uploader := fx.CreateUser(ctx, "Uploader", "uploader@test.com")
	group := fx.CreateGroup(ctx, "Crate Diggers", uploader.ID)
	fx.AddMember(ctx, group.ID, uploader.ID)

	// Force the metadata insert to fail with a duplicate key: a unique index
	// on title plus a pre-existing row with the same title.
	_, err := db.Collection("tracks").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	fx.CreateTrack(ctx, "Night Drive", group.ID, uploader.ID)

	mem := storage.NewMemory(storage.MemoryConfig{})
	handler := newUploadHandler(db, mem)

	req := uploadRequest(t, map[string]string{
		"title":    "Night Drive",
		"artist":   "The Commuters",
		"group_id": group.ID.Hex(),
	}, "night-drive.mp3", []byte("ID3 fake mp3 payload"), testutil.UserWithID(uploader.ID, uploader.FullName, uploader.Email))
	rec := testutil.NewRecorder()

	// Handler will try to render a template which may panic without initialized templates
	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.HandleUpload(rec, req)
	}()

	rows, err := trackstore.New(db).ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the pre-existing track, got %d rows", len(rows))
	}

	// The blob written before the failed insert must not survive it.
	result, err := mem.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Objects) != 0 {
		t.Errorf("expected compensating delete to empty storage, got %d objects", len(result.Objects))
	}
}
