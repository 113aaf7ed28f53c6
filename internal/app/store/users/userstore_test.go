package userstore_test

import (
	"testing"

	userstore "github.com/soundcircle/soundcircle/internal/app/store/users"
	"github.com/soundcircle/soundcircle/internal/app/system/indexes"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/soundcircle/soundcircle/internal/testutil"
	"go.uber.org/zap"
)

func TestCreate_FillsGeneratedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := userstore.New(db)
	created, err := store.Create(ctx, models.User{
		FullName:   "Miles Davis",
		Email:      "Miles@Example.com",
		AuthMethod: "password",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("Create did not assign an ID")
	}
	if created.EmailCI != "miles@example.com" {
		t.Errorf("EmailCI: got %q, want %q", created.EmailCI, "miles@example.com")
	}
	if created.Status != "active" {
		t.Errorf("Status: got %q, want %q", created.Status, "active")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := userstore.New(db)
	if _, err := store.Create(ctx, models.User{FullName: "First", Email: "same@test.com", AuthMethod: "password"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same email with different casing still collides on email_ci.
	_, err := store.Create(ctx, models.User{FullName: "Second", Email: "SAME@test.com", AuthMethod: "password"})
	if err != userstore.ErrDuplicateEmail {
		t.Fatalf("second Create: got %v, want ErrDuplicateEmail", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := userstore.New(db)
	if _, err := store.Create(ctx, models.User{FullName: "Casey", Email: "casey@test.com", AuthMethod: "password"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "CASEY@Test.Com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Email != "casey@test.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "casey@test.com")
	}
}

func TestFindOrCreateOAuth_ProvisionsOnFirstSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := userstore.New(db)
	u, err := store.FindOrCreateOAuth(ctx, "google", "google-id-1", "new@test.com", "New Person")
	if err != nil {
		t.Fatalf("FindOrCreateOAuth failed: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("provisioned user has no ID")
	}
	if u.AuthMethod != "google" {
		t.Errorf("AuthMethod: got %q, want %q", u.AuthMethod, "google")
	}
	if u.AuthProviderID != "google-id-1" {
		t.Errorf("AuthProviderID: got %q, want %q", u.AuthProviderID, "google-id-1")
	}
}

func TestFindOrCreateOAuth_FindsExistingByProviderID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := userstore.New(db)
	first, err := store.FindOrCreateOAuth(ctx, "google", "google-id-2", "repeat@test.com", "Repeat Visitor")
	if err != nil {
		t.Fatalf("first FindOrCreateOAuth failed: %v", err)
	}

	second, err := store.FindOrCreateOAuth(ctx, "google", "google-id-2", "repeat@test.com", "Repeat Visitor")
	if err != nil {
		t.Fatalf("second FindOrCreateOAuth failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeat sign-in created a new user: %s vs %s", second.ID.Hex(), first.ID.Hex())
	}
}

func TestFindOrCreateOAuth_LinksByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := userstore.New(db)
	existing, err := store.Create(ctx, models.User{
		FullName:   "Password User",
		Email:      "linked@test.com",
		AuthMethod: "password",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	linked, err := store.FindOrCreateOAuth(ctx, "google", "google-id-3", "linked@test.com", "Password User")
	if err != nil {
		t.Fatalf("FindOrCreateOAuth failed: %v", err)
	}
	if linked.ID != existing.ID {
		t.Errorf("expected link to existing account %s, got %s", existing.ID.Hex(), linked.ID.Hex())
	}
	if linked.AuthProviderID != "google-id-3" {
		t.Errorf("AuthProviderID after link: got %q, want %q", linked.AuthProviderID, "google-id-3")
	}
}
