// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	userstore "github.com/soundcircle/soundcircle/internal/app/store/users"
	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/soundcircle/soundcircle/internal/app/system/navigation"
	"github.com/soundcircle/soundcircle/internal/app/system/normalize"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	Users         *userstore.Store
	GoogleEnabled bool // True if Google OAuth is configured
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		Users:         userstore.New(db),
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

type signupFormData struct {
	viewdata.BaseVM
	FullName  string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Login", "/"),
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderLoginWithError(w, r, "Please enter your email and password.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.renderLoginWithError(w, r, "No account found for that email.", email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if u.Status == "disabled" {
		h.renderLoginWithError(w, r, "Your account is currently disabled.", email, ret)
		return
	}

	if u.AuthMethod == "google" {
		// Account was provisioned via Google sign-in; no password on file.
		redirectURL := "/auth/google"
		if ret != "" {
			redirectURL += "?return=" + url.QueryEscape(ret)
		}
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		h.Log.Warn("login: password mismatch", zap.String("email", email))
		h.renderLoginWithError(w, r, "Incorrect email or password.", email, ret)
		return
	}

	h.createSessionAndRedirect(w, r, u, ret)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /signup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	templates.Render(w, r, "signup", signupFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign up", "/login"),
		ReturnURL: ret,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignupPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/signup")
		return
	}

	fullName := normalize.Name(r.FormValue("full_name"))
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if fullName == "" || email == "" {
		h.renderSignupWithError(w, r, "Please fill in your name and email.", fullName, email, ret)
		return
	}
	if len(password) < 8 {
		h.renderSignupWithError(w, r, "Password must be at least 8 characters.", fullName, email, ret)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "bcrypt hash", err, "A server error occurred.", "/signup")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Create fills the generated ID; the session must carry the created
	// row's ID, not the zero value on the request-scoped struct.
	created, err := h.Users.Create(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		AuthMethod:   "password",
		PasswordHash: string(hash),
		Status:       "active",
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.renderSignupWithError(w, r, "An account with that email already exists.", fullName, email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB create user", err, "A server error occurred.", "/signup")
		return
	}

	h.createSessionAndRedirect(w, r, created, ret)
}

// createSessionAndRedirect creates an authenticated session and redirects to
// the destination.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u models.User, returnURL string) {
	sess, err := h.SessionMgr.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		}
	}

	sess.Values["is_authenticated"] = true
	sess.Values["user_id"] = u.ID.Hex()

	if err := sess.Save(r, w); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", u.Email))
		h.renderLoginWithError(w, r, "Unable to create session. Please try again.", u.Email, returnURL)
		return
	}

	dest := navigation.SafeReturnPath(returnURL, "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderLoginWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	vm := loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Login", "/"),
		Email:         email,
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	}
	vm.SetError(msg)
	templates.Render(w, r, "login", vm)
}

func (h *Handler) renderSignupWithError(w http.ResponseWriter, r *http.Request, msg, fullName, email, ret string) {
	vm := signupFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign up", "/login"),
		FullName:  fullName,
		Email:     email,
		ReturnURL: ret,
	}
	vm.SetError(msg)
	templates.Render(w, r, "signup", vm)
}
