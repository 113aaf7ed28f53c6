// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"net/http"
	"net/url"

	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler walks an invite link through its states: validate the group,
// require a signed-in user, then admit them. Every terminal page
// auto-redirects to the dashboard after a few seconds.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type inviteResultData struct {
	viewdata.BaseVM
	Heading     string
	Message     string
	GroupName   string
	RedirectURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /invite?group_id=<hex>                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// 1. Validate the group before anything else. A dead link renders the
	// invalid page whether or not the visitor is signed in, and never
	// touches the membership ledger.
	groupHex := query.Get(r, "group_id")
	groupID, err := primitive.ObjectIDFromHex(groupHex)
	if err != nil {
		h.renderInvalid(w, r)
		return
	}

	group, err := groupstore.New(h.DB).GetByID(ctx, groupID)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("invite: load group failed", zap.Error(err), zap.String("group_id", groupHex))
			h.renderError(w, r)
			return
		}
		h.renderInvalid(w, r)
		return
	}

	// 2. The visitor must be signed in; send them to login carrying this
	// invite URL so they land back here afterwards.
	_, _, userID, signedIn := authz.UserCtx(r)
	if !signedIn {
		ret := url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}

	// 3. Admit. Joining twice is success, not an error: the unique
	// (group_id, member_id) index guarantees at most one row either way.
	added, err := membershipstore.New(h.DB).AddIfAbsent(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("invite: admit failed",
			zap.Error(err),
			zap.String("group_id", groupID.Hex()),
			zap.String("user_id", userID.Hex()))
		h.renderError(w, r)
		return
	}

	if !added {
		templates.Render(w, r, "invite_result", inviteResultData{
			BaseVM:      viewdata.NewBaseVM(r, "Invitation", "/dashboard"),
			Heading:     "You're already a member",
			Message:     "You already belong to this group, so there's nothing to do.",
			GroupName:   group.Name,
			RedirectURL: "/dashboard",
		})
		return
	}

	h.Log.Info("invite: member admitted",
		zap.String("group_id", groupID.Hex()),
		zap.String("user_id", userID.Hex()))

	templates.Render(w, r, "invite_result", inviteResultData{
		BaseVM:      viewdata.NewBaseVM(r, "Invitation", "/dashboard"),
		Heading:     "Welcome to the group!",
		Message:     "You've joined the group and can now see its shared music.",
		GroupName:   group.Name,
		RedirectURL: "/dashboard",
	})
}

func (h *Handler) renderInvalid(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "invite_result", inviteResultData{
		BaseVM:      viewdata.NewBaseVM(r, "Invitation", "/dashboard"),
		Heading:     "This invitation isn't valid",
		Message:     "The invite link is broken or the group no longer exists.",
		RedirectURL: "/dashboard",
	})
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "invite_result", inviteResultData{
		BaseVM:      viewdata.NewBaseVM(r, "Invitation", "/dashboard"),
		Heading:     "Something went wrong",
		Message:     "We couldn't process the invitation. Please try the link again.",
		RedirectURL: "/dashboard",
	})
}
