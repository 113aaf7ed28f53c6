// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"fmt"

	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher adapts the user store to auth.UserFetcher so the session
// middleware loads fresh user data on each request.
type Fetcher struct {
	store *Store
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("malformed session user id %q: %w", userID, err)
	}
	u, err := f.store.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		// Account deleted since sign-in; treat as signed out.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Status == "disabled" {
		return nil, nil
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
	}, nil
}
