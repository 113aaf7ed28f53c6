package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		AuthMethod: "password",
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return u
}

// CreateGroup creates a test group owned by the given user.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, createdBy primitive.ObjectID) models.Group {
	f.t.Helper()

	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: &createdBy,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	return g
}

// AddMember inserts a membership row directly, bypassing the store.
func (f *Fixtures) AddMember(ctx context.Context, groupID, memberID primitive.ObjectID) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		MemberID: memberID,
		JoinedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("group_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}

	return m
}

// CreateTrack creates a test track in the given group.
func (f *Fixtures) CreateTrack(ctx context.Context, title string, groupID, uploadedBy primitive.ObjectID) models.Track {
	f.t.Helper()

	tr := models.Track{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Artist:     "Test Artist",
		GroupID:    groupID,
		UploadedBy: uploadedBy,
		FilePath:   "tracks/2026/01/test-" + title + ".mp3",
		FileType:   "audio/mpeg",
		FileSize:   1024,
		UploadDate: time.Now().UTC(),
	}

	if _, err := f.db.Collection("tracks").InsertOne(ctx, tr); err != nil {
		f.t.Fatalf("failed to create test track: %v", err)
	}

	return tr
}
