package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"Lodugramwebserver/internal/auth"
	"Lodugramwebserver/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *api) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fields := map[string]string{}
	req.Username = normalizeUsername(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username != "" && !validUsername(req.Username) {
		fields["username"] = "must be 3-20 chars [a-z0-9_]"
	}
	if len(req.Password) < 12 {
		fields["password"] = "must be at least 12 characters"
	}
	if len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	userAgent := r.UserAgent()
	ip := clientIP(r)

	u, sessID, err := a.authSvc.Register(r.Context(), req.Email, req.Username, req.Password, ip, userAgent)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	cookieValue := a.cookieCodec.EncodeSessionID(sessID)
	auth.SetSessionCookie(w, cookieValue, a.sessionTTL, a.cookieSecure)

	writeUser(w, http.StatusCreated, u)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (a *api) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"login": "required", "password": "required"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("ip:"+ip, now) || !a.loginLimiter.Allow("login:"+strings.ToLower(req.Login), now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	u, sessID, err := a.authSvc.Login(r.Context(), req.Login, req.Password, ip, r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	cookieValue := a.cookieCodec.EncodeSessionID(sessID)
	auth.SetSessionCookie(w, cookieValue, a.sessionTTL, a.cookieSecure)

	writeUser(w, http.StatusOK, u)
}

type externalLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (a *api) handleAuthLoginGoogle(w http.ResponseWriter, r *http.Request) {
	a.handleExternalLogin(w, r, a.authSvc.LoginWithGoogle)
}

func (a *api) handleAuthLoginApple(w http.ResponseWriter, r *http.Request) {
	a.handleExternalLogin(w, r, a.authSvc.LoginWithApple)
}

func (a *api) handleExternalLogin(w http.ResponseWriter, r *http.Request, login func(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error)) {
	var req externalLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if strings.TrimSpace(req.IDToken) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id_token": "required"}))
		return
	}

	u, sessID, err := login(r.Context(), req.IDToken, clientIP(r), r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	cookieValue := a.cookieCodec.EncodeSessionID(sessID)
	auth.SetSessionCookie(w, cookieValue, a.sessionTTL, a.cookieSecure)

	writeUser(w, http.StatusOK, u)
}

func (a *api) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	sessID, ok := CurrentSessionID(r.Context())
	if !ok || sessID == "" {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	u, _ := CurrentUser(r.Context())

	_ = a.authSvc.Logout(r.Context(), sessID, u.ID)
	auth.ClearSessionCookie(w, a.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}
