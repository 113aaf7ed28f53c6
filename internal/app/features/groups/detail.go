// internal/app/features/groups/detail.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/policy/trackpolicy"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	userstore "github.com/soundcircle/soundcircle/internal/app/store/users"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type detailData struct {
	viewdata.BaseVM
	Group       models.Group
	CreatorName string
	MemberCount int64
	Tracks      []models.TrackWithUploader
	InviteURL   string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/{groupID}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad group id", err, "That group doesn't exist.", "/groups")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Membership is the capability: non-members get nothing, not even the
	// group's existence.
	allowed, err := trackpolicy.CanAccessGroup(ctx, h.DB, userID, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking membership", err, "A database error occurred.", "/groups")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "You're not a member of this group.", "/groups")
		return
	}

	group, err := groupstore.New(h.DB).GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderForbidden(w, r, "That group doesn't exist.", "/groups")
			return
		}
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/groups")
		return
	}

	memberCount, err := membershipstore.New(h.DB).CountByGroup(ctx, groupID)
	if err != nil {
		h.Log.Warn("count members failed", zap.Error(err), zap.String("group_id", groupID.Hex()))
	}

	tracks, err := trackstore.New(h.DB).ListByGroupWithUploader(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading tracks", err, "A database error occurred.", "/groups")
		return
	}

	creatorName := ""
	if group.CreatedBy != nil {
		if creator, err := userstore.New(h.DB).GetByID(ctx, *group.CreatedBy); err == nil {
			creatorName = creator.FullName
		}
	}

	templates.Render(w, r, "group_detail", detailData{
		BaseVM:      viewdata.NewBaseVM(r, group.Name, "/groups"),
		Group:       group,
		CreatorName: creatorName,
		MemberCount: memberCount,
		Tracks:      tracks,
		InviteURL:   h.BaseURL + "/invite?group_id=" + groupID.Hex(),
	})
}
