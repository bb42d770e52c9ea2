package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Blazious/fun-learning-system/api/controllers"
	"github.com/Blazious/fun-learning-system/api/middleware"
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
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/metrics"
	"github.com/Blazious/fun-learning-system/pkg/redis"
)

// Services bundles the domain services the router mounts.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Communities   communities.Service
	Sessions      sessions.Service
	Articles      articles.Service
	Mentorship    mentorship.Service
	Gamification  gamification.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	healthChecks map[string]controllers.Pinger,
	sessionChecker session.AccessSessionChecker,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthChecks))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(svcs.Users, logg))
			r.Get("/me/stats", controllers.MyStats(svcs.Users, logg))
			r.Patch("/me/profile", controllers.UpdateMyProfile(svcs.Users, logg))
			r.Post("/me/change-password", controllers.ChangeMyPassword(svcs.Auth, logg))
			r.Delete("/me", controllers.DeactivateMe(svcs.Users, logg))
			r.Get("/{userId}/profile", controllers.GetProfile(svcs.Users, logg))
			r.Get("/{userId}/badges", controllers.UserBadges(svcs.Gamification, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.PlatformRoleModerator)))
				r.Get("/", controllers.ListUsers(svcs.Users, logg))
				r.Post("/{userId}/verify", controllers.VerifyUser(svcs.Users, logg))
				r.Post("/{userId}/deactivate", controllers.DeactivateUser(svcs.Users, logg))
			})
		})

		r.Route("/communities", func(r chi.Router) {
			r.Post("/", controllers.CreateCommunity(svcs.Communities, logg))
			r.Get("/", controllers.ListCommunities(svcs.Communities, logg))
			r.Get("/slug/{slug}", controllers.GetCommunityBySlug(svcs.Communities, logg))
			r.Route("/{communityId}", func(r chi.Router) {
				r.Get("/", controllers.GetCommunity(svcs.Communities, logg))
				r.Patch("/", controllers.UpdateCommunity(svcs.Communities, logg))
				r.Delete("/", controllers.DeactivateCommunity(svcs.Communities, logg))
				r.Post("/join", controllers.JoinCommunity(svcs.Communities, logg))
				r.Post("/leave", controllers.LeaveCommunity(svcs.Communities, logg))
				r.Get("/members", controllers.ListMembers(svcs.Communities, logg))
				r.Get("/leaderboard", controllers.CommunityLeaderboard(svcs.Gamification, logg))
				r.Post("/topics", controllers.CreateTopic(svcs.Communities, logg))
				r.Get("/topics", controllers.ListTopics(svcs.Communities, logg))
			})
		})

		r.Route("/topics/{topicId}", func(r chi.Router) {
			r.Patch("/moderate", controllers.ModerateTopic(svcs.Communities, logg))
			r.Post("/posts", controllers.CreatePost(svcs.Communities, logg))
			r.Get("/posts", controllers.ListPosts(svcs.Communities, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.ScheduleSession(svcs.Sessions, logg))
			r.Get("/", controllers.ListSessions(svcs.Sessions, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.GetSession(svcs.Sessions, logg))
				r.Post("/publish", controllers.PublishSession(svcs.Sessions, logg))
				r.Post("/start", controllers.StartSession(svcs.Sessions, logg))
				r.Post("/complete", controllers.CompleteSession(svcs.Sessions, logg))
				r.Post("/cancel", controllers.CancelSession(svcs.Sessions, logg))
				r.Post("/register", controllers.RegisterForSession(svcs.Sessions, logg))
				r.Post("/participants/role", controllers.AssignParticipantRole(svcs.Sessions, logg))
				r.Post("/attendance", controllers.MarkAttendance(svcs.Sessions, logg))
				r.Get("/participants", controllers.ListParticipants(svcs.Sessions, logg))
				r.Post("/feedback", controllers.LeaveFeedback(svcs.Sessions, logg))
				r.Get("/feedback/summary", controllers.FeedbackSummary(svcs.Sessions, logg))
			})
		})

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", controllers.CreateArticle(svcs.Articles, logg))
			r.Get("/", controllers.ListArticles(svcs.Articles, logg))
			r.Route("/{articleId}", func(r chi.Router) {
				r.Get("/", controllers.GetArticle(svcs.Articles, logg))
				r.Patch("/", controllers.UpdateArticle(svcs.Articles, logg))
				r.Post("/publish", controllers.PublishArticle(svcs.Articles, logg))
				r.Delete("/", controllers.DeleteArticle(svcs.Articles, logg))
			})
		})

		r.Route("/mentorship", func(r chi.Router) {
			r.Post("/mentors", controllers.BecomeMentor(svcs.Mentorship, logg))
			r.Get("/mentors", controllers.ListOpenMentors(svcs.Mentorship, logg))
			r.Post("/mentees", controllers.BecomeMentee(svcs.Mentorship, logg))
			r.Post("/requests", controllers.RequestMentorship(svcs.Mentorship, logg))
			r.Get("/relationships", controllers.MyMentorships(svcs.Mentorship, logg))
			r.Route("/relationships/{relationshipId}", func(r chi.Router) {
				r.Post("/accept", controllers.AcceptMentorship(svcs.Mentorship, logg))
				r.Post("/complete", controllers.CompleteMentorship(svcs.Mentorship, logg))
				r.Post("/cancel", controllers.CancelMentorship(svcs.Mentorship, logg))
			})
		})

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/points/events", controllers.MyPointEvents(svcs.Gamification, logg))
			r.Get("/points/balance", controllers.MyBalance(svcs.Gamification, logg))
			r.Post("/points/verify", controllers.VerifyMyBalance(svcs.Gamification, logg))
			r.Get("/badges", controllers.ListBadges(svcs.Gamification, logg))
			r.Post("/badges/evaluate", controllers.EvaluateMyBadges(svcs.Gamification, logg))
			r.Get("/leaderboard", controllers.Leaderboard(svcs.Gamification, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.PlatformRoleModerator)))
				r.Post("/points/corrections", controllers.RecordCorrection(svcs.Gamification, logg))
				r.Post("/points/{userId}/verify", controllers.VerifyUserBalance(svcs.Gamification, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
