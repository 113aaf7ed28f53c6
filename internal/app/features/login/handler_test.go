package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/features/login"
	userstore "github.com/soundcircle/soundcircle/internal/app/store/users"
	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/soundcircle/soundcircle/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T, db *mongo.Database) (*login.Handler, *auth.SessionManager) {
	t.Helper()

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	return login.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), false, logger), sessionMgr
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// sessionUserID decodes the session cookie the handler set and returns
// the user_id stored in it, or "" when no usable session exists.
func sessionUserID(t *testing.T, sm *auth.SessionManager, rec *testutil.ResponseRecorder) string {
	t.Helper()

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	sess, err := sm.GetSession(req)
	if err != nil {
		return ""
	}
	id, _ := sess.Values["user_id"].(string)
	return id
}

func TestHandleSignupPost_SessionCarriesCreatedUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	handler, sessionMgr := newTestHandler(t, db)

	req := formRequest("/signup", url.Values{
		"full_name": {"New Member"},
		"email":     {"new@test.com"},
		"password":  {"long-enough-pass"},
	})
	rec := testutil.NewRecorder()

	handler.HandleSignupPost(rec, req)

	rec.AssertRedirect(t, "/dashboard")

	created, err := userstore.New(db).GetByEmail(ctx, "new@test.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("created user has a zero ID")
	}

	// The session must point at the stored row, not a zero-value ID.
	if got := sessionUserID(t, sessionMgr, rec); got != created.ID.Hex() {
		t.Errorf("session user_id: got %q, want %q", got, created.ID.Hex())
	}
}

func TestHandleLoginPost_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u, err := userstore.New(db).Create(ctx, models.User{
		FullName:     "Existing Member",
		Email:        "member@test.com",
		AuthMethod:   "password",
		PasswordHash: string(hash),
		Status:       "active",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	handler, sessionMgr := newTestHandler(t, db)

	req := formRequest("/login", url.Values{
		"email":    {"member@test.com"},
		"password": {"correct horse"},
	})
	rec := testutil.NewRecorder()

	handler.HandleLoginPost(rec, req)

	rec.AssertRedirect(t, "/dashboard")
	if got := sessionUserID(t, sessionMgr, rec); got != u.ID.Hex() {
		t.Errorf("session user_id: got %q, want %q", got, u.ID.Hex())
	}
}

func TestHandleLoginPost_WrongPasswordSetsNoSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := userstore.New(db).Create(ctx, models.User{
		FullName:     "Existing Member",
		Email:        "member@test.com",
		AuthMethod:   "password",
		PasswordHash: string(hash),
		Status:       "active",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	handler, sessionMgr := newTestHandler(t, db)

	req := formRequest("/login", url.Values{
		"email":    {"member@test.com"},
		"password": {"wrong password"},
	})
	rec := testutil.NewRecorder()

	// Handler will try to render a template which may panic without initialized templates
	func() {
		defer func() {
			if r := recover(); r != nil {
				// Template rendering may panic in tests
			}
		}()
		handler.HandleLoginPost(rec, req)
	}()

	if got := sessionUserID(t, sessionMgr, rec); got != "" {
		t.Errorf("expected no session for a failed login, got user_id %q", got)
	}
}

func TestHandleLoginPost_GoogleAccountEscapesReturn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	if _, err := userstore.New(db).Create(ctx, models.User{
		FullName:   "Google Member",
		Email:      "google@test.com",
		AuthMethod: "google",
		Status:     "active",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	handler, _ := newTestHandler(t, db)

	ret := "/invite?group_id=abc123"
	req := formRequest("/login", url.Values{
		"email":    {"google@test.com"},
		"password": {"anything"},
		"return":   {ret},
	})
	rec := testutil.NewRecorder()

	handler.HandleLoginPost(rec, req)

	// The return target rides as a single query value, not as raw "?" and
	// "=" characters spliced into the redirect URL.
	rec.AssertRedirect(t, "/auth/google?return="+url.QueryEscape(ret))
}
