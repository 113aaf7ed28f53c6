// internal/app/features/api/groups.go
package api

import (
	"context"
	"encoding/json"
	"net/http"

	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/htmlsanitize"
	"github.com/soundcircle/soundcircle/internal/app/system/normalize"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"github.com/soundcircle/soundcircle/internal/app/system/txn"
	"github.com/soundcircle/soundcircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type groupMembershipRow struct {
	GroupID  string       `json:"group_id"`
	MemberID string       `json:"member_id"`
	JoinedAt string       `json:"joined_at"`
	Group    models.Group `json:"groups"`
}

type groupListResponse struct {
	Data []groupMembershipRow `json:"data"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/groups?user_id=<hex>                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleListGroups returns the signed-in user's memberships with the
// group metadata embedded in each row.
func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if q := query.Get(r, "user_id"); q != "" && q != userID.Hex() {
		writeError(w, http.StatusForbidden, "user_id does not match the signed-in user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := membershipstore.New(h.DB).ListByMember(ctx, userID)
	if err != nil {
		h.Log.Error("api list groups: memberships failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load groups")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	groups, err := groupstore.New(h.DB).ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("api list groups: groups failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load groups")
		return
	}
	byID := make(map[primitive.ObjectID]models.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	rows := make([]groupMembershipRow, 0, len(memberships))
	for _, m := range memberships {
		rows = append(rows, groupMembershipRow{
			GroupID:  m.GroupID.Hex(),
			MemberID: m.MemberID.Hex(),
			JoinedAt: m.JoinedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Group:    byID[m.GroupID],
		})
	}

	writeJSON(w, http.StatusOK, groupListResponse{Data: rows})
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserEmail   string `json:"userEmail"`
	UserID      string `json:"userId"`
}

type createGroupResponse struct {
	Success bool         `json:"success"`
	Group   models.Group `json:"group"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/groups                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateGroup creates a group with the signed-in user as creator
// and sole initial member. The two rows land atomically.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.UserID != "" && req.UserID != userID.Hex() {
		writeError(w, http.StatusForbidden, "userId does not match the signed-in user")
		return
	}

	name := normalize.Name(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	desc := htmlsanitize.Sanitize(normalize.Name(req.Description))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	grpStore := groupstore.New(h.DB)
	doc := groupstore.NewDoc(models.Group{
		Name:        name,
		Description: desc,
		CreatedBy:   &userID,
	})

	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := grpStore.Insert(ctx, doc); err != nil {
			return err
		}
		return membershipstore.New(h.DB).Add(ctx, doc.ID, userID)
	})
	if err != nil {
		if delErr := grpStore.Delete(ctx, doc.ID); delErr != nil {
			h.Log.Warn("compensating group delete failed",
				zap.Error(delErr),
				zap.String("group_id", doc.ID.Hex()))
		}
		h.Log.Error("api create group failed", zap.Error(err), zap.String("name", name))
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	writeJSON(w, http.StatusOK, createGroupResponse{Success: true, Group: doc})
}
