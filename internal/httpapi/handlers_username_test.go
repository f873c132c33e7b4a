package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/service"
)

type stubUsernamesStore struct {
	t *testing.T

	reserveFunc func(context.Context, string, string) error
	lookupFunc  func(context.Context, string) (domain.UsernameRecord, error)
	existsFunc  func(context.Context, string) (bool, error)
}

func (s *stubUsernamesStore) Reserve(ctx context.Context, userID, username string) error {
	if s.reserveFunc != nil {
		return s.reserveFunc(ctx, userID, username)
	}
	s.t.Fatalf("Reserve called unexpectedly")
	return context.Canceled
}

func (s *stubUsernamesStore) Lookup(ctx context.Context, username string) (domain.UsernameRecord, error) {
	if s.lookupFunc != nil {
		return s.lookupFunc(ctx, username)
	}
	s.t.Fatalf("Lookup called unexpectedly")
	return domain.UsernameRecord{}, context.Canceled
}

func (s *stubUsernamesStore) Exists(ctx context.Context, username string) (bool, error) {
	if s.existsFunc != nil {
		return s.existsFunc(ctx, username)
	}
	s.t.Fatalf("Exists called unexpectedly")
	return false, context.Canceled
}

func TestUsernameCheckAvailable(t *testing.T) {
	store := &stubUsernamesStore{
		t: t,
		existsFunc: func(_ context.Context, username string) (bool, error) {
			if username != "alice" {
				t.Fatalf("unexpected username: %s", username)
			}
			return false, nil
		},
	}

	api := &api{usernameSvc: &service.UsernameService{Usernames: store}}

	req := authedRequest(http.MethodGet, "/v1/username/check?username=Alice", "", domain.User{ID: "user-1"})
	rr := httptest.NewRecorder()
	api.handleUsernameCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var body struct {
		Username  string `json:"username"`
		Available bool   `json:"available"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Username != "alice" || !body.Available {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestUsernameCheckRejectsBadChars(t *testing.T) {
	api := &api{usernameSvc: &service.UsernameService{Usernames: &stubUsernamesStore{t: t}}}

	req := authedRequest(http.MethodGet, "/v1/username/check?username=no%20spaces", "", domain.User{ID: "user-1"})
	rr := httptest.NewRecorder()
	api.handleUsernameCheck(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestUsernameReserve(t *testing.T) {
	reserved := ""
	store := &stubUsernamesStore{
		t: t,
		reserveFunc: func(_ context.Context, userID, username string) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			reserved = username
			return nil
		},
	}

	api := &api{usernameSvc: &service.UsernameService{Usernames: store}}

	req := authedRequest(http.MethodPost, "/v1/users/me/username", `{"username":"  Alice "}`, domain.User{ID: "user-1"})
	rr := httptest.NewRecorder()
	api.handleUsernameReserve(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rr.Code, rr.Body.String())
	}
	if reserved != "alice" {
		t.Fatalf("unexpected reserved username: %s", reserved)
	}
}

func TestUsernameReserveConflict(t *testing.T) {
	store := &stubUsernamesStore{
		t: t,
		reserveFunc: func(context.Context, string, string) error {
			return domain.ErrUsernameTaken
		},
	}

	api := &api{usernameSvc: &service.UsernameService{Usernames: store}}

	req := authedRequest(http.MethodPost, "/v1/users/me/username", `{"username":"alice"}`, domain.User{ID: "user-1"})
	rr := httptest.NewRecorder()
	api.handleUsernameReserve(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var envelope errorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "username_taken" {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}

func TestUsernameReserveImmutable(t *testing.T) {
	store := &stubUsernamesStore{
		t: t,
		reserveFunc: func(context.Context, string, string) error {
			return domain.ErrUsernameImmutable
		},
	}

	api := &api{usernameSvc: &service.UsernameService{Usernames: store}}

	req := authedRequest(http.MethodPost, "/v1/users/me/username", `{"username":"newname"}`,
		domain.User{ID: "user-1", Username: "oldname"})
	rr := httptest.NewRecorder()
	api.handleUsernameReserve(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
