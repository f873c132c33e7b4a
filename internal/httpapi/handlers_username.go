package httpapi

import (
	"net/http"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/service"
)

func (a *api) handleUsernameCheck(w http.ResponseWriter, r *http.Request) {
	username := service.NormalizeUsername(r.URL.Query().Get("username"))
	if username == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"username": "required"}))
		return
	}

	available, err := a.usernameSvc.CheckAvailability(r.Context(), username)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"username":  username,
		"available": available,
	})
}

type reserveUsernameRequest struct {
	Username string `json:"username"`
}

func (a *api) handleUsernameReserve(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req reserveUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	username := service.NormalizeUsername(req.Username)
	if err := a.usernameSvc.Reserve(r.Context(), u.ID, username); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"username": username})
}
