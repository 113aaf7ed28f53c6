// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	BaseURL string // used to build shareable invite links
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		BaseURL: baseURL,
	}
}

type groupRow struct {
	Group       models.Group
	MemberCount int64
}

type listData struct {
	viewdata.BaseVM
	Groups []groupRow
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups – the signed-in user's groups                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members := membershipstore.New(h.DB)

	groupIDs, err := members.GroupIDsForMember(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading memberships", err, "A database error occurred.", "/dashboard")
		return
	}

	groups, err := groupstore.New(h.DB).ListByIDs(ctx, groupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading groups", err, "A database error occurred.", "/dashboard")
		return
	}

	rows := make([]groupRow, 0, len(groups))
	for _, g := range groups {
		n, err := members.CountByGroup(ctx, g.ID)
		if err != nil {
			h.Log.Warn("count members failed", zap.Error(err), zap.String("group_id", g.ID.Hex()))
		}
		rows = append(rows, groupRow{Group: g, MemberCount: n})
	}

	templates.Render(w, r, "groups_list", listData{
		BaseVM: viewdata.NewBaseVM(r, "Your Groups", "/dashboard"),
		Groups: rows,
	})
}
