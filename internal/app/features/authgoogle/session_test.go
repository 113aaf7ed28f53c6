package authgoogle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newSessionHandler(t *testing.T) (*Handler, *auth.SessionManager) {
	t.Helper()

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return &Handler{Log: logger, SessionMgr: sessionMgr}, sessionMgr
}

func TestCreateSessionAndRedirect_SetsSessionForUser(t *testing.T) {
	h, sessionMgr := newSessionHandler(t)

	u := models.User{
		ID:    primitive.NewObjectID(),
		Email: "oauth@test.com",
	}

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()

	h.createSessionAndRedirect(rec, req, u, "/groups/abc123")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/groups/abc123" {
		t.Errorf("Location: got %q, want %q", loc, "/groups/abc123")
	}

	// Replay the cookie to confirm the session carries the user's ID.
	check := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		check.AddCookie(c)
	}
	sess, err := sessionMgr.GetSession(check)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got, _ := sess.Values["user_id"].(string); got != u.ID.Hex() {
		t.Errorf("session user_id: got %q, want %q", got, u.ID.Hex())
	}
	if authed, _ := sess.Values["is_authenticated"].(bool); !authed {
		t.Error("session is_authenticated should be true")
	}
}

func TestCreateSessionAndRedirect_RejectsAbsoluteReturnURL(t *testing.T) {
	h, _ := newSessionHandler(t)

	u := models.User{ID: primitive.NewObjectID(), Email: "oauth@test.com"}

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()

	h.createSessionAndRedirect(rec, req, u, "https://evil.example/phish")

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want %q", loc, "/dashboard")
	}
}
