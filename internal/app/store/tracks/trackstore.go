// internal/app/store/tracks/trackstore.go
package trackstore

import (
	"context"
	"time"

	"github.com/soundcircle/soundcircle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tracks")}
}

// Create inserts a track, filling UploadDate and, when the caller has
// not pre-assigned one, the ID. Upload handlers pre-assign the ID so
// the stored file URL can reference it.
func (s *Store) Create(ctx context.Context, t models.Track) (models.Track, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.UploadDate = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Track{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Track, error) {
	var t models.Track
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Track{}, err
	}
	return t, nil
}

// ListByGroup returns a group's tracks, newest upload first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Track, error) {
	return s.list(ctx, bson.M{"group_id": groupID})
}

// ListByGroups returns all tracks across the given groups, newest first.
// An empty group set yields an empty result.
func (s *Store) ListByGroups(ctx context.Context, groupIDs []primitive.ObjectID) ([]models.Track, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}})
}

// ListByUploader returns the tracks a user uploaded, newest first.
func (s *Store) ListByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Track, error) {
	return s.list(ctx, bson.M{"uploaded_by": userID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Track, error) {
	opts := options.Find().SetSort(bson.D{{Key: "upload_date", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tracks []models.Track
	if err := cur.All(ctx, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// ListByGroupWithUploader joins a group's tracks with each uploader's
// email for the group-detail listing.
func (s *Store) ListByGroupWithUploader(ctx context.Context, groupID primitive.ObjectID) ([]models.TrackWithUploader, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"group_id": groupID}},
		{"$sort": bson.M{"upload_date": -1}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "uploaded_by",
			"foreignField": "_id",
			"as":           "uploader",
		}},
		{"$addFields": bson.M{
			"uploader_email": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$uploader.email", 0}},
				"",
			}},
		}},
		{"$project": bson.M{"uploader": 0}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.TrackWithUploader
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementPlays bumps a track's play counter.
func (s *Store) IncrementPlays(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"plays": 1}})
	return err
}
