package httpapi

import (
	"net/http"
	"strings"

	"Lodugramwebserver/internal/domain"
)

type registerTokenRequest struct {
	Token string `json:"token"`
}

func (a *api) handleNotificationsRegisterToken(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	var req registerTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"token": "required"}))
		return
	}

	if err := a.notificationSvc.RegisterToken(r.Context(), u.ID, req.Token); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleNotificationsClearToken(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	if err := a.notificationSvc.ClearToken(r.Context(), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type sendNotificationRequest struct {
	UserID string            `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

func (a *api) handleNotificationsSend(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	messageID, err := a.notificationSvc.SendToUser(r.Context(), req.UserID, req.Title, req.Body, req.Data)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": messageID,
	})
}

type broadcastRequest struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func (a *api) handleNotificationsBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	result, err := a.notificationSvc.SendToAll(r.Context(), req.Title, req.Body, req.Data)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
