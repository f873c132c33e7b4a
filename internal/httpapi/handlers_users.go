package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"Lodugramwebserver/internal/domain"
)

type userResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email,omitempty"`
	Username    string     `json:"username,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	HasToken    bool       `json:"has_device_token"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func writeUser(w http.ResponseWriter, status int, u domain.User) {
	WriteJSON(w, status, userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		HasToken:    u.DeviceToken != "",
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	})
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	writeUser(w, http.StatusOK, u)
}

func (a *api) handleUsersSearch(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"limit": "must be an integer"}))
			return
		}
		limit = n
	}

	results, err := a.usersSvc.Search(r.Context(), q, limit, u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if results == nil {
		results = []domain.UserSummary{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"users": results})
}
