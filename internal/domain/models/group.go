// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named sharing scope. Tracks belong to exactly one group and
// are visible only to that group's members.
//
// NOTE:
//   - Member lists are not embedded on Group.
//     All membership is stored in the group_members collection.
//   - Groups are never edited or deleted once created.
type Group struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"name_ci"`
	Description string              `bson:"description" json:"description"`
	CreatedBy   *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
