// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the membership ledger: the authority for "who can see which
// group's tracks". The unique (group_id, member_id) index makes Add
// idempotent under concurrent joins.
type Store struct {
	c *mongo.Collection
}

var ErrDuplicateMembership = errors.New("user is already a member of this group")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_members")}
}

// Add inserts a membership row. Returns ErrDuplicateMembership when the
// (group, member) pair already exists.
func (s *Store) Add(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	doc := models.GroupMembership{
		GroupID:  groupID,
		MemberID: memberID,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// AddIfAbsent admits a member, treating an existing row as success.
// Returns added=false when the user was already a member. This is the
// invite workflow's "insert if absent, else no-op" contract.
func (s *Store) AddIfAbsent(ctx context.Context, groupID, memberID primitive.ObjectID) (added bool, err error) {
	err = s.Add(ctx, groupID, memberID)
	if err == ErrDuplicateMembership {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Exists checks if a membership exists for the given group and member.
func (s *Store) Exists(ctx context.Context, groupID, memberID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "member_id": memberID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByMember returns all of a user's memberships, newest first.
func (s *Store) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.GroupMembership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// GroupIDsForMember resolves the set of group ids a user belongs to.
// No memberships yields an empty slice, not an error.
func (s *Store) GroupIDsForMember(ctx context.Context, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	memberships, err := s.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	return ids, nil
}

// CountByGroup returns the number of members in a group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}
