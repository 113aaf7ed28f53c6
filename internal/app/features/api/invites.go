// internal/app/features/api/invites.go
package api

import (
	"context"
	"encoding/json"
	"net/http"

	groupstore "github.com/soundcircle/soundcircle/internal/app/store/groups"
	membershipstore "github.com/soundcircle/soundcircle/internal/app/store/memberships"
	"github.com/soundcircle/soundcircle/internal/app/system/authz"
	"github.com/soundcircle/soundcircle/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type confirmInviteRequest struct {
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
}

type confirmInviteResponse struct {
	Success       bool `json:"success"`
	AlreadyMember bool `json:"already_member"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/confirm-invite                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleConfirmInvite admits the signed-in user into a group. Calling it
// twice for the same pair is success both times; the unique membership
// index keeps the ledger at one row.
func (h *Handler) HandleConfirmInvite(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req confirmInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.UserID != "" && req.UserID != userID.Hex() {
		writeError(w, http.StatusForbidden, "user_id does not match the signed-in user")
		return
	}

	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := groupstore.New(h.DB).GetByID(ctx, groupID); err != nil {
		if err == mongo.ErrNoDocuments {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("confirm-invite: load group failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to confirm invite")
		return
	}

	added, err := membershipstore.New(h.DB).AddIfAbsent(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("confirm-invite: admit failed",
			zap.Error(err),
			zap.String("group_id", groupID.Hex()),
			zap.String("user_id", userID.Hex()))
		writeError(w, http.StatusInternalServerError, "failed to confirm invite")
		return
	}

	writeJSON(w, http.StatusOK, confirmInviteResponse{
		Success:       true,
		AlreadyMember: !added,
	})
}
