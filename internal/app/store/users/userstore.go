// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/soundcircle/soundcircle/internal/app/system/normalize"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateEmail = errors.New("an account with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks a user up by case-folded email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user, filling ID, CI fields, and timestamps.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.EmailCI = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = "active"
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// FindOrCreateOAuth resolves an OAuth identity to a user row, provisioning
// one on first sign-in. Lookup order: provider ID, then email (linking the
// provider ID onto an existing account).
func (s *Store) FindOrCreateOAuth(ctx context.Context, provider, providerID, email, fullName string) (models.User, error) {
	var u models.User

	err := s.c.FindOne(ctx, bson.M{"auth_provider_id": providerID}).Decode(&u)
	if err == nil {
		return u, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	err = s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&u)
	if err == nil {
		if u.AuthProviderID == "" {
			_, updateErr := s.c.UpdateOne(ctx,
				bson.M{"_id": u.ID},
				bson.M{"$set": bson.M{"auth_provider_id": providerID, "updated_at": time.Now().UTC()}},
			)
			if updateErr != nil {
				return models.User{}, updateErr
			}
			u.AuthProviderID = providerID
		}
		return u, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	created, err := s.Create(ctx, models.User{
		FullName:       fullName,
		Email:          email,
		AuthMethod:     provider,
		AuthProviderID: providerID,
	})
	if err == ErrDuplicateEmail {
		// Concurrent first sign-in; the other request won the insert.
		return s.GetByEmail(ctx, email)
	}
	return created, err
}
