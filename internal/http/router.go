package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ieeesb/interviewhub/internal/auth"
	"github.com/ieeesb/interviewhub/internal/config"
	"github.com/ieeesb/interviewhub/internal/domain/user"
	"github.com/ieeesb/interviewhub/internal/http/handlers"
	"github.com/ieeesb/interviewhub/internal/http/middlewares"
	"github.com/ieeesb/interviewhub/internal/mail"
	"github.com/ieeesb/interviewhub/internal/observability"
	"github.com/ieeesb/interviewhub/internal/realtime"
	"github.com/ieeesb/interviewhub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "interviewhub"

type Dependencies struct {
	Config   config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *realtime.Client
	Mailer   mail.Mailer
	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Logger))
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Config.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics

	pingDB := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	pingRedis := func() error {
		if deps.Redis == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Redis.Ping(ctx)
	}

	h := handlers.NewHealthHandler(pingDB, pingRedis)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	panelsRepo := postgres.NewPanelsRepo(deps.Pool, deps.Prom)

	broadcaster := realtime.NewRedisBroadcaster(deps.Redis)

	jwtManager := auth.NewManager(deps.Config.JWTSecret, deps.Config.JWTExpiry)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo, panelsRepo, deps.Mailer, broadcaster, deps.Logger, deps.Prom)

	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	r.POST("/auth/login",
		middlewares.RequireJSON(),
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		authHandler.Login,
	)

	authMW := middlewares.NewAuthMiddleware(jwtManager)

	api := r.Group("/api")
	api.Use(authMW.RequireAuth())
	{
		// reads available to any signed-in account
		api.GET("/volunteers", usersHandler.GetVolunteers)
		api.GET("/panels/:panelID/volunteer", usersHandler.GetVolunteerOfPanel)
		api.PUT("/users/:id/password", middlewares.RequireJSON(), usersHandler.ChangePassword)

		// account management is admin only
		admin := api.Group("")
		admin.Use(middlewares.RequireRole(user.RoleAdmin))
		{
			admin.GET("/users", usersHandler.GetUsers)
			admin.GET("/users/:id", usersHandler.GetUser)
			admin.POST("/users", middlewares.RequireJSON(), usersHandler.CreateUser)
			admin.PUT("/users/:id", middlewares.RequireJSON(), usersHandler.UpdateUser)
			admin.DELETE("/users/:id", usersHandler.DeleteUser)
		}
	}

	return r
}
