package httpapi

import (
	"net/http"
	"strings"

	"Lodugramwebserver/internal/domain"
)

type sendGreetingRequest struct {
	ToUserID string `json:"to_user_id"`
}

func (a *api) handleGreetingsSend(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	var req sendGreetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	g, err := a.greetingSvc.Send(r.Context(), u, strings.TrimSpace(req.ToUserID))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, g)
}

func (a *api) handleGreetingsInbox(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	greetings, err := a.greetingSvc.Inbox(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if greetings == nil {
		greetings = []domain.Greeting{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"greetings": greetings})
}

func (a *api) handleGreetingsMarkRead(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	greetingID := r.PathValue("id")
	if greetingID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := a.greetingSvc.MarkRead(r.Context(), u.ID, greetingID); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleGreetingsUnreadCount(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	count, err := a.greetingSvc.UnreadCount(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"count": count})
}
