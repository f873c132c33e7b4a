package httpapi

import (
	"net/http"
	"strings"

	"Lodugramwebserver/internal/domain"
)

func (a *api) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	overview, err := a.friendsSvc.ListOverview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if overview.Friends == nil {
		overview.Friends = []domain.UserSummary{}
	}
	if overview.Incoming == nil {
		overview.Incoming = []domain.FriendRequest{}
	}
	if overview.Outgoing == nil {
		overview.Outgoing = []domain.FriendRequest{}
	}

	WriteJSON(w, http.StatusOK, overview)
}

type createFriendRequestRequest struct {
	Username string `json:"username"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fr, err := a.friendsSvc.CreateRequest(r.Context(), u, strings.TrimSpace(req.Username))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, fr)
}

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	requestID := r.PathValue("id")
	if requestID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	friendship, err := a.friendsSvc.Accept(r.Context(), u.ID, requestID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, friendship)
}

func (a *api) handleFriendsDecline(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	requestID := r.PathValue("id")
	if requestID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := a.friendsSvc.Decline(r.Context(), u.ID, requestID); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsRemove(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	otherID := r.PathValue("id")
	if err := a.friendsSvc.Remove(r.Context(), u.ID, otherID); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
