// internal/domain/models/track.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Track is the metadata plus storage pointer for one uploaded audio or
// video file. GroupID is the sharing scope; FilePath is the key into the
// object store and FileURL is the public URL the store issued for it.
// Tracks are insert-only: no edit or delete operation exists.
type Track struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Title    string             `bson:"title" json:"title"`
	Artist   string             `bson:"artist" json:"artist"`
	Album    string             `bson:"album,omitempty" json:"album,omitempty"`
	Genre    string             `bson:"genre,omitempty" json:"genre,omitempty"`
	Year     int                `bson:"year,omitempty" json:"year,omitempty"`
	Duration int                `bson:"duration,omitempty" json:"duration,omitempty"` // seconds

	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`

	FilePath string `bson:"file_path" json:"file_path"`
	FileURL  string `bson:"file_url" json:"file_url"`
	FileType string `bson:"file_type" json:"file_type"`
	FileSize int64  `bson:"file_size" json:"file_size"`

	Plays      int       `bson:"plays" json:"plays"`
	UploadDate time.Time `bson:"upload_date" json:"upload_date"`
}

// TrackWithUploader is a Track joined with the uploader's email, as
// returned by the group-detail listing.
type TrackWithUploader struct {
	Track         `bson:",inline"`
	UploaderEmail string `bson:"uploader_email" json:"uploader_email"`
}
