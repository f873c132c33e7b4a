package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Lodugramwebserver/internal/auth"
	"Lodugramwebserver/internal/service"
	"Lodugramwebserver/internal/watch"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Usernames     *service.UsernameService
	Friends       *service.FriendsService
	Greetings     *service.GreetingService
	Notifications *service.NotificationService
	Users         *service.UsersService
	Hub           *watch.Hub
	CookieCodec   auth.CookieCodec
	CookieSecure  bool
	SessionTTL    time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:          logger,
		isProd:          opts.IsProd,
		dbPing:          opts.DBPing,
		authSvc:         opts.Auth,
		usernameSvc:     opts.Usernames,
		friendsSvc:      opts.Friends,
		greetingSvc:     opts.Greetings,
		notificationSvc: opts.Notifications,
		usersSvc:        opts.Users,
		hub:             opts.Hub,
		cookieCodec:     opts.CookieCodec,
		cookieSecure:    opts.CookieSecure,
		sessionTTL:      opts.SessionTTL,
		loginLimiter:    newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
	apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
	apiMux.HandleFunc("POST /v1/auth/google", api.handleAuthLoginGoogle)
	apiMux.HandleFunc("POST /v1/auth/apple", api.handleAuthLoginApple)
	apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
	apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))

	if api.usernameSvc != nil {
		apiMux.HandleFunc("GET /v1/username/check", api.requireAuth(api.handleUsernameCheck))
		apiMux.HandleFunc("POST /v1/users/me/username", api.requireAuth(api.handleUsernameReserve))
	}
	if api.usersSvc != nil {
		apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
	}

	if api.friendsSvc != nil {
		apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsList))
		apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsCreateRequest))
		apiMux.HandleFunc("POST /v1/friends/requests/{id}/accept", api.requireAuth(api.handleFriendsAccept))
		apiMux.HandleFunc("POST /v1/friends/requests/{id}/decline", api.requireAuth(api.handleFriendsDecline))
		apiMux.HandleFunc("DELETE /v1/friends/{id}", api.requireAuth(api.handleFriendsRemove))
	}

	if api.greetingSvc != nil {
		apiMux.HandleFunc("POST /v1/greetings", api.requireAuth(api.handleGreetingsSend))
		apiMux.HandleFunc("GET /v1/greetings", api.requireAuth(api.handleGreetingsInbox))
		apiMux.HandleFunc("POST /v1/greetings/{id}/read", api.requireAuth(api.handleGreetingsMarkRead))
		apiMux.HandleFunc("GET /v1/greetings/unread-count", api.requireAuth(api.handleGreetingsUnreadCount))
	}

	if api.notificationSvc != nil {
		apiMux.HandleFunc("POST /v1/notifications/token", api.requireAuth(api.handleNotificationsRegisterToken))
		apiMux.HandleFunc("DELETE /v1/notifications/token", api.requireAuth(api.handleNotificationsClearToken))
		apiMux.HandleFunc("POST /v1/notifications/send", api.requireAuth(api.handleNotificationsSend))
		apiMux.HandleFunc("POST /v1/notifications/broadcast", api.requireAuth(api.handleNotificationsBroadcast))
	}

	if api.hub != nil {
		apiMux.HandleFunc("GET /v1/ws", api.requireAuth(api.handleWatchSocket))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc         *service.AuthService
	usernameSvc     *service.UsernameService
	friendsSvc      *service.FriendsService
	greetingSvc     *service.GreetingService
	notificationSvc *service.NotificationService
	usersSvc        *service.UsersService
	hub             *watch.Hub
	cookieCodec     auth.CookieCodec
	cookieSecure    bool
	sessionTTL      time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
