package invites_test

import (
	"net/url"
	"testing"

	"github.com/soundcircle/soundcircle/internal/app/features/invites"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/indexes"
	"github.com/soundcircle/soundcircle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeInvite_UnauthenticatedRedirectsToLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Group Owner", "owner@test.com")
	group := fx.CreateGroup(ctx, "Jazz Night", owner.ID)

	handler := invites.NewHandler(db, zap.NewNop())

	target := "/invite?group_id=" + group.ID.Hex()
	req := testutil.NewRequest("GET", target)
	rec := testutil.NewRecorder()

	handler.ServeInvite(rec, req)

	rec.AssertRedirect(t, "/login?return="+url.QueryEscape(target))
}

func TestServeInvite_AdmitsSignedInUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Group Owner", "owner@test.com")
	group := fx.CreateGroup(ctx, "Jazz Night", owner.ID)
	guest := fx.CreateUser(ctx, "Invited Guest", "guest@test.com")

	handler := invites.NewHandler(db, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/invite?group_id="+group.ID.Hex(),
		testutil.UserWithID(guest.ID, guest.FullName, guest.Email))
	rec := testutil.NewRecorder()

	// Handler will try to render a template which may panic without initialized templates
	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.ServeInvite(rec, req)
	}()

	ok, err := membershipstore.New(db).Exists(ctx, group.ID, guest.ID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected membership row after following invite")
	}
}

func TestServeInvite_SecondVisitLeavesOneMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Group Owner", "owner@test.com")
	group := fx.CreateGroup(ctx, "Jazz Night", owner.ID)
	guest := fx.CreateUser(ctx, "Invited Guest", "guest@test.com")

	handler := invites.NewHandler(db, zap.NewNop())
	user := testutil.UserWithID(guest.ID, guest.FullName, guest.Email)

	for i := 0; i < 2; i++ {
		req := testutil.NewAuthenticatedRequest("GET", "/invite?group_id="+group.ID.Hex(), user)
		rec := testutil.NewRecorder()
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Template rendering may panic in tests
				}
			}()
			handler.ServeInvite(rec, req)
		}()
	}

	n, err := membershipstore.New(db).CountByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	// owner fixture row is inserted directly only via AddMember, so the
	// guest's row is the sole membership here.
	if n != 1 {
		t.Errorf("membership rows for group: got %d, want 1", n)
	}
}

func TestServeInvite_MissingGroupDoesNotMutate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	guest := fx.CreateUser(ctx, "Invited Guest", "guest@test.com")
	handler := invites.NewHandler(db, zap.NewNop())

	ghostGroup := primitive.NewObjectID()
	req := testutil.NewAuthenticatedRequest("GET", "/invite?group_id="+ghostGroup.Hex(),
		testutil.UserWithID(guest.ID, guest.FullName, guest.Email))
	rec := testutil.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.ServeInvite(rec, req)
	}()

	ok, err := membershipstore.New(db).Exists(ctx, ghostGroup, guest.ID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("invite to a nonexistent group must not create a membership")
	}
}

func TestServeInvite_MalformedGroupIDDoesNotMutate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	guest := fx.CreateUser(ctx, "Invited Guest", "guest@test.com")
	handler := invites.NewHandler(db, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/invite?group_id=not-a-hex-id",
		testutil.UserWithID(guest.ID, guest.FullName, guest.Email))
	rec := testutil.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.ServeInvite(rec, req)
	}()

	ids, err := membershipstore.New(db).GroupIDsForMember(ctx, guest.ID)
	if err != nil {
		t.Fatalf("GroupIDsForMember failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no memberships, got %d", len(ids))
	}
}
