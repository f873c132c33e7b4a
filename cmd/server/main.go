package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"Lodugramwebserver/internal/auth"
	"Lodugramwebserver/internal/config"
	"Lodugramwebserver/internal/httpapi"
	"Lodugramwebserver/internal/notifications"
	"Lodugramwebserver/internal/scheduler"
	"Lodugramwebserver/internal/service"
	"Lodugramwebserver/internal/store/postgres"
	"Lodugramwebserver/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	hub := watch.NewHub()

	var (
		authSvc         *service.AuthService
		usernameSvc     *service.UsernameService
		friendsSvc      *service.FriendsService
		greetingSvc     *service.GreetingService
		notificationSvc *service.NotificationService
		usersSvc        *service.UsersService
		sweep           *scheduler.Scheduler
		dbPing          func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		if err := postgres.Migrate(context.Background(), pgPool); err != nil {
			logger.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		usernames := postgres.NewUsernamesStore(pgPool)
		friendships := postgres.NewFriendshipsStore(pgPool)
		greetings := postgres.NewGreetingsStore(pgPool)
		userSearch := postgres.NewUserSearchStore(pgPool)

		authSvc = &service.AuthService{
			Users:             users,
			Sessions:          sessions,
			SessionTTL:        cfg.SessionTTL,
			Logger:            logger,
			GoogleWebClientID: cfg.GoogleWebClientID,
			AppleServiceID:    cfg.AppleServiceID,
		}
		usernameSvc = &service.UsernameService{
			Usernames: usernames,
			Users:     users,
			Logger:    logger,
		}
		friendsSvc = &service.FriendsService{
			Friendships: friendships,
			Resolver:    usernameSvc,
			Watch:       hub,
		}
		usersSvc = &service.UsersService{Store: userSearch}

		if cfg.FCMProjectID != "" && cfg.FCMCredentialsPath != "" {
			sender, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentialsPath)
			if err != nil {
				logger.Error("fcm sender init failed", "err", err)
				os.Exit(1)
			}
			notificationSvc = &service.NotificationService{
				Users:  users,
				Sender: sender,
				Logger: logger,
			}
			sweep = &scheduler.Scheduler{
				Logger: logger,
				Run: func(ctx context.Context) {
					result, err := notificationSvc.CleanupTokens(ctx)
					if err != nil {
						logger.Error("token sweep failed", "err", err)
						return
					}
					logger.Info("token sweep done", "cleaned", result.CleanedCount)
				},
			}
			sweep.Start()
			defer sweep.Stop()
		} else {
			logger.Info("push notifications disabled",
				"project_id_set", cfg.FCMProjectID != "", "credentials_set", cfg.FCMCredentialsPath != "")
		}

		greetingSvc = &service.GreetingService{
			Greetings: greetings,
			Friends:   friendsSvc,
			Watch:     hub,
			Logger:    logger,
		}
		if notificationSvc != nil {
			greetingSvc.Notifier = notificationSvc
		}

		dbPing = pgPool.Ping
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Auth:          authSvc,
		Usernames:     usernameSvc,
		Friends:       friendsSvc,
		Greetings:     greetingSvc,
		Notifications: notificationSvc,
		Users:         usersSvc,
		Hub:           hub,
		CookieCodec:   auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure:  cfg.CookieSecure(),
		SessionTTL:    cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
