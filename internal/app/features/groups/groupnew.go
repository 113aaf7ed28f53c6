// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/soundcircle/soundcircle/internal/app/features/errors"
	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/htmlsanitize"
	"github.com/soundcircle/soundcircle/internal/app/system/normalize"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/txn"
	"github.com/soundcircle/soundcircle/internal/app/system/viewdata"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type newGroupData struct {
	viewdata.BaseVM
	Name        string
	Description string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/new                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "group_new", newGroupData{
		BaseVM: viewdata.NewBaseVM(r, "Create Group", "/groups"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/new")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	desc := htmlsanitize.Sanitize(normalize.Name(r.FormValue("description")))

	if name == "" {
		h.reRenderNewWithError(w, r, newGroupData{Description: desc}, "Please enter a group name.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	grpStore := groupstore.New(h.DB)
	doc := groupstore.NewDoc(models.Group{
		Name:        name,
		Description: desc,
		CreatedBy:   &userID,
	})

	// Group row and creator membership land together. On replica sets the
	// transaction rolls both back; on standalone Mongo the fallback runs the
	// writes directly and we compensate below.
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := grpStore.Insert(ctx, doc); err != nil {
			return err
		}
		return membershipstore.New(h.DB).Add(ctx, doc.ID, userID)
	})
	if err != nil {
		// If the group row landed without its creator membership, remove it so
		// no orphan group exists.
		if delErr := grpStore.Delete(ctx, doc.ID); delErr != nil {
			h.Log.Warn("compensating group delete failed",
				zap.Error(delErr),
				zap.String("group_id", doc.ID.Hex()))
		}
		h.Log.Error("group create failed", zap.Error(err), zap.String("name", name))
		h.reRenderNewWithError(w, r, newGroupData{Name: name, Description: desc}, "Failed to create group.")
		return
	}

	h.Log.Info("group created",
		zap.String("group_id", doc.ID.Hex()),
		zap.String("created_by", userID.Hex()),
		zap.String("name", name))

	http.Redirect(w, r, "/groups/"+doc.ID.Hex(), http.StatusSeeOther)
}

// reRenderNewWithError re-renders the Create Group page with a validation
// error and previously posted values.
func (h *Handler) reRenderNewWithError(w http.ResponseWriter, r *http.Request, data newGroupData, msg string) {
	data.BaseVM = viewdata.NewBaseVM(r, "Create Group", "/groups")
	data.SetError(msg)
	templates.Render(w, r, "group_new", data)
}
