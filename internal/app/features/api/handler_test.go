package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soundcircle/soundcircle/internal/app/features/api"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/indexes"
	"github.com/soundcircle/soundcircle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(db *mongo.Database) *api.Handler {
	return api.NewHandler(db, nil, "http://localhost:8080", zap.NewNop())
}

func jsonRequest(method, target, body string, user *testutil.TestUser) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	return req
}

func TestHandleConfirmInvite_RequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	req := jsonRequest("POST", "/api/confirm-invite", `{"group_id":"abc"}`, nil)
	rec := testutil.NewRecorder()

	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleConfirmInvite_BadGroupID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	req := jsonRequest("POST", "/api/confirm-invite", `{"group_id":"not-hex"}`, &user)
	rec := testutil.NewRecorder()

	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleConfirmInvite_MismatchedUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	body := `{"user_id":"` + primitive.NewObjectID().Hex() + `","group_id":"` + primitive.NewObjectID().Hex() + `"}`
	req := jsonRequest("POST", "/api/confirm-invite", body, &user)
	rec := testutil.NewRecorder()

	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleConfirmInvite_GroupNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	body := `{"group_id":"` + primitive.NewObjectID().Hex() + `"}`
	req := jsonRequest("POST", "/api/confirm-invite", body, &user)
	rec := testutil.NewRecorder()

	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleConfirmInvite_AdmitsAndReportsAlreadyMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Owner", "owner@test.com")
	group := fx.CreateGroup(ctx, "Jazz Night", owner.ID)
	guest := fx.CreateUser(ctx, "Guest", "guest@test.com")
	user := testutil.UserWithID(guest.ID, guest.FullName, guest.Email)

	handler := newTestHandler(db)
	body := `{"group_id":"` + group.ID.Hex() + `"}`

	req := jsonRequest("POST", "/api/confirm-invite", body, &user)
	rec := testutil.NewRecorder()
	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Success       bool `json:"success"`
		AlreadyMember bool `json:"already_member"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.AlreadyMember {
		t.Errorf("first confirm: got %+v, want success and not already_member", resp)
	}

	req = jsonRequest("POST", "/api/confirm-invite", body, &user)
	rec = testutil.NewRecorder()
	handler.HandleConfirmInvite(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || !resp.AlreadyMember {
		t.Errorf("second confirm: got %+v, want success and already_member", resp)
	}

	n, err := membershipstore.New(db).CountByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("membership rows: got %d, want 1", n)
	}
}

func TestHandleListGroups_RequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	req := httptest.NewRequest("GET", "/api/groups", nil)
	rec := testutil.NewRecorder()

	handler.HandleListGroups(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleListGroups_ReturnsMembershipsWithGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	owner := fx.CreateUser(ctx, "Owner", "owner@test.com")
	member := fx.CreateUser(ctx, "Member", "member@test.com")
	g1 := fx.CreateGroup(ctx, "Vinyl Club", owner.ID)
	g2 := fx.CreateGroup(ctx, "Tape Trade", owner.ID)
	fx.AddMember(ctx, g1.ID, member.ID)
	fx.AddMember(ctx, g2.ID, member.ID)

	handler := newTestHandler(db)
	user := testutil.UserWithID(member.ID, member.FullName, member.Email)
	req := testutil.NewAuthenticatedRequest("GET", "/api/groups", user)
	rec := testutil.NewRecorder()

	handler.HandleListGroups(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Data []struct {
			GroupID  string `json:"group_id"`
			MemberID string `json:"member_id"`
			Groups   struct {
				Name string `json:"name"`
			} `json:"groups"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("rows: got %d, want 2", len(resp.Data))
	}
	for _, row := range resp.Data {
		if row.MemberID != member.ID.Hex() {
			t.Errorf("member_id: got %q, want %q", row.MemberID, member.ID.Hex())
		}
		if row.Groups.Name == "" {
			t.Errorf("row %s missing embedded group metadata", row.GroupID)
		}
	}
}

func TestHandleListGroups_RejectsForeignUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	req := testutil.NewAuthenticatedRequest("GET", "/api/groups?user_id="+primitive.NewObjectID().Hex(), user)
	rec := testutil.NewRecorder()

	handler.HandleListGroups(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleCreateGroup_RequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	req := jsonRequest("POST", "/api/groups", `{"name":"New Group"}`, nil)
	rec := testutil.NewRecorder()

	handler.HandleCreateGroup(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleCreateGroup_RequiresName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	req := jsonRequest("POST", "/api/groups", `{"name":"   "}`, &user)
	rec := testutil.NewRecorder()

	handler.HandleCreateGroup(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUploadFile_RequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	req := httptest.NewRequest("POST", "/api/upload-file", nil)
	rec := testutil.NewRecorder()

	handler.HandleUploadFile(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleUploadFile_RejectsNonMultipart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newTestHandler(db)

	user := testutil.SomeUser()
	req := jsonRequest("POST", "/api/upload-file", `{"not":"multipart"}`, &user)
	rec := testutil.NewRecorder()

	handler.HandleUploadFile(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleCreateGroup_CreatesGroupAndMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	creator := fx.CreateUser(ctx, "Creator", "creator@test.com")
	user := testutil.UserWithID(creator.ID, creator.FullName, creator.Email)

	handler := newTestHandler(db)
	req := jsonRequest("POST", "/api/groups", `{"name":"Fresh Cuts","description":"new releases only"}`, &user)
	rec := testutil.NewRecorder()

	handler.HandleCreateGroup(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Success bool `json:"success"`
		Group   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"group"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Group.Name != "Fresh Cuts" {
		t.Errorf("group name: got %q, want %q", resp.Group.Name, "Fresh Cuts")
	}

	groupID, err := primitive.ObjectIDFromHex(resp.Group.ID)
	if err != nil {
		t.Fatalf("response group id is not a valid ObjectID: %v", err)
	}
	ok, err := membershipstore.New(db).Exists(ctx, groupID, creator.ID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("creator was not admitted into the new group")
	}
}
