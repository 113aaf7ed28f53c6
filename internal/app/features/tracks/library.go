// internal/app/features/tracks/library.go
package tracks

import (
	"context"
	"net/http"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	"github.com/soundcircle/soundcircle/internal/app/policy/trackpolicy"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	trackstore "github.com/soundcircle/soundcircle/internal/app/store/tracks"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type libraryTrack struct {
	models.Track
	GroupName string
}

type libraryData struct {
	viewdata.BaseVM
	Visible []libraryTrack
	Mine    []libraryTrack
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /library                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLibrary lists every track the user can see: the union of their
// groups' tracks, plus a separate view of their own uploads.
func (h *Handler) ServeLibrary(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groupIDs, err := trackpolicy.VisibleGroupIDs(ctx, h.DB, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading memberships", err, "A database error occurred.", "/dashboard")
		return
	}

	tracks := trackstore.New(h.DB)

	visible, err := tracks.ListByGroups(ctx, groupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading tracks", err, "A database error occurred.", "/dashboard")
		return
	}

	mine, err := tracks.ListByUploader(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading uploads", err, "A database error occurred.", "/dashboard")
		return
	}

	groups, err := groupstore.New(h.DB).ListByIDs(ctx, groupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading groups", err, "A database error occurred.", "/dashboard")
		return
	}
	names := make(map[primitive.ObjectID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}

	templates.Render(w, r, "library", libraryData{
		BaseVM:  viewdata.NewBaseVM(r, "Library", "/dashboard"),
		Visible: withGroupNames(visible, names),
		Mine:    withGroupNames(mine, names),
	})
}

func withGroupNames(tracks []models.Track, names map[primitive.ObjectID]string) []libraryTrack {
	rows := make([]libraryTrack, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, libraryTrack{Track: t, GroupName: names[t.GroupID]})
	}
	return rows
}
