// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, ErrLog: errLog}
}

type groupCard struct {
	Group       models.Group
	MemberCount int64
}

type dashboardData struct {
	viewdata.BaseVM
	Groups      []groupCard
	TrackCount  int
	HasGroups   bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groupIDs, err := membershipstore.New(h.DB).GroupIDsForMember(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading memberships", err, "A database error occurred.", "/")
		return
	}

	groups, err := groupstore.New(h.DB).ListByIDs(ctx, groupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading groups", err, "A database error occurred.", "/")
		return
	}

	members := membershipstore.New(h.DB)
	cards := make([]groupCard, 0, len(groups))
	for _, g := range groups {
		n, err := members.CountByGroup(ctx, g.ID)
		if err != nil {
			h.Log.Warn("count members failed", zap.Error(err), zap.String("group_id", g.ID.Hex()))
		}
		cards = append(cards, groupCard{Group: g, MemberCount: n})
	}

	myTracks, err := trackstore.New(h.DB).ListByUploader(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading tracks", err, "A database error occurred.", "/")
		return
	}

	templates.Render(w, r, "dashboard", dashboardData{
		BaseVM:     viewdata.NewBaseVM(r, "Dashboard", "/"),
		Groups:     cards,
		TrackCount: len(myTracks),
		HasGroups:  len(cards) > 0,
	})
}
