// Package trackpolicy is the authorization gate for track visibility.
//
// The rule: a track is visible only to members of its group. Every
// track-returning or file-returning operation must call through this
// package before returning data - membership is an enforced capability
// check, not a query-filter convention.
package trackpolicy

import (
	"context"

	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CanAccessGroup reports whether the user may see the group's tracks,
// i.e. whether a membership row exists for (groupID, userID).
func CanAccessGroup(ctx context.Context, db *mongo.Database, userID, groupID primitive.ObjectID) (bool, error) {
	return membershipstore.New(db).Exists(ctx, groupID, userID)
}

// VisibleGroupIDs resolves the set of groups whose tracks the user may
// see. A user with no memberships gets an empty set, not an error.
func VisibleGroupIDs(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return membershipstore.New(db).GroupIDsForMember(ctx, userID)
}
