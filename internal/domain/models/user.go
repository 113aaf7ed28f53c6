// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can create groups, be invited into groups,
// and upload tracks.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_members collection to discover a user's groups.
//   - AuthMethod is "password" or "google". PasswordHash is only set for
//     password accounts; AuthProviderID is only set for OAuth accounts.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"full_name" json:"full_name"`
	FullNameCI     string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email          string             `bson:"email" json:"email"`
	EmailCI        string             `bson:"email_ci" json:"email_ci"`
	AuthMethod     string             `bson:"auth_method" json:"auth_method"` // password | google
	AuthProviderID string             `bson:"auth_provider_id,omitempty" json:"-"`
	PasswordHash   string             `bson:"password_hash,omitempty" json:"-"`
	Status         string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
