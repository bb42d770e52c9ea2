package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Blazious/fun-learning-system/api/controllers"
	"github.com/Blazious/fun-learning-system/api/routes"
	"github.com/Blazious/fun-learning-system/internal/articles"
	"github.com/Blazious/fun-learning-system/internal/auth"
	"github.com/Blazious/fun-learning-system/internal/communities"
	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/internal/mentorship"
	"github.com/Blazious/fun-learning-system/internal/notifications"
	"github.com/Blazious/fun-learning-system/internal/sessions"
	"github.com/Blazious/fun-learning-system/internal/users"
	"github.com/Blazious/fun-learning-system/pkg/auth/session"
	"github.com/Blazious/fun-learning-system/pkg/config"
	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/metrics"
	"github.com/Blazious/fun-learning-system/pkg/migrate"
	"github.com/Blazious/fun-learning-system/pkg/pubsub"
	"github.com/Blazious/fun-learning-system/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, pubsubClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	healthChecks := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"pubsub":   pubsubClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, healthChecks, sessionManager, redisClient, metrics.NewHTTPMetrics(prometheus.DefaultRegisterer), svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			logg.Error(ctx, "graceful shutdown incomplete", err)
		}
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	sessionManager *session.Manager,
) (routes.Services, error) {
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)

	authService, err := auth.NewService(auth.Options{
		Repo:     userRepo,
		Sessions: sessionManager,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	usersService, err := users.NewService(users.Options{Repo: userRepo, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}

	gamificationService, err := gamification.NewService(gamification.Options{
		Repo:        gamification.NewRepository(gormDB),
		Tx:          dbClient,
		Points:      cfg.Points,
		Leaderboard: cfg.Leaderboard,
		Cache:       redisClient,
		Publisher:   pubsub.NewGamificationEventPublisher(pubsubClient.GamificationPublisher()),
		Metrics:     metrics.NewGamificationMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	communitiesService, err := communities.NewService(communities.Options{
		Repo:   communities.NewRepository(gormDB),
		Tx:     dbClient,
		Points: gamificationService,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	sessionsService, err := sessions.NewService(sessions.Options{
		Repo:   sessions.NewRepository(gormDB),
		Points: gamificationService,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	articlesService, err := articles.NewService(articles.Options{
		Repo:   articles.NewRepository(gormDB),
		Points: gamificationService,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	mentorshipService, err := mentorship.NewService(mentorship.Options{
		Repo:   mentorship.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		Users:         usersService,
		Communities:   communitiesService,
		Sessions:      sessionsService,
		Articles:      articlesService,
		Mentorship:    mentorshipService,
		Gamification:  gamificationService,
		Notifications: notificationsService,
	}, nil
}
