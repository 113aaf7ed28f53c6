// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (group_id, member_id), enforced by a unique
// index; possession of a membership row is what grants visibility of the
// group's tracks.
type GroupMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	MemberID primitive.ObjectID `bson:"member_id" json:"member_id"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}
