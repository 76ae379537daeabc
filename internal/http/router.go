package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/devicehub/internal/auth"
	"github.com/geocoder89/devicehub/internal/cache"
	"github.com/geocoder89/devicehub/internal/config"
	"github.com/geocoder89/devicehub/internal/http/handlers"
	"github.com/geocoder89/devicehub/internal/http/middlewares"
	"github.com/geocoder89/devicehub/internal/observability"
	"github.com/geocoder89/devicehub/internal/redisclient"
	"github.com/geocoder89/devicehub/internal/repo/postgres"
	"github.com/geocoder89/devicehub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(
	log *slog.Logger,
	cfg config.Config,
	pool *pgxpool.Pool,
	rds *redisclient.Client,
	prom *observability.Prom,
	reg *prometheus.Registry,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.DeviceTokenTTL)
	authMw := middlewares.NewAuthMiddleware(jwtManager, log)

	// middleware, outermost first

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("devicehub"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(authMw.ResolveSession())

	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	r.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	// health + metrics

	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	pingRedis := func() error {
		if rds == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return rds.Ping(ctx)
	}

	health := handlers.NewHealthHandler(pingDB, pingRedis)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	devicesRepo := postgres.NewDevicesRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	// device token cache: redis in deployments, in-process map without one

	var tokenCache service.DeviceTokenCache
	if rds != nil {
		tokenCache = cache.NewRedis(rds.Raw(), cfg.DeviceTokenTTL)
	} else {
		tokenCache = cache.NewMemory(cfg.DeviceTokenTTL)
	}

	// services

	sessions := service.NewSessionService(jwtManager, refreshRepo, log)
	deviceSvc := service.NewDeviceService(devicesRepo, jwtManager, tokenCache, prom)
	userSvc := service.NewUserService(usersRepo, sessions)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, sessions, refreshRepo, cfg)
	usersHandler := handlers.NewUsersHandler(userSvc, cfg.Env == "prod")
	devicesHandler := handlers.NewDevicesHandler(deviceSvc)

	// credential endpoints get a tighter per-IP budget on top of the
	// global limit, since no user is resolved there yet

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.RateWindow)
	authGuard := authLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.POST("/auth/login", authGuard, authHandler.Login)
	r.POST("/auth/refresh", authGuard, authHandler.Refresh)
	r.POST("/auth/logout", authGuard, authHandler.Logout)

	// public registration

	r.POST("/users", authGuard, usersHandler.AddUser)

	// everything below requires a resolved session

	protected := r.Group("/", authMw.RequireAuth())

	protected.GET("/users", usersHandler.ListUsers)
	protected.GET("/users/:id", usersHandler.GetUserById)
	protected.DELETE("/users/:id", usersHandler.DeleteUser)

	protected.GET("/devices", devicesHandler.ListDevices)
	protected.GET("/devices/:id", devicesHandler.GetDeviceById)
	protected.POST("/devices", devicesHandler.CreateDevice)
	protected.PUT("/devices/:id", devicesHandler.UpdateDevice)
	protected.DELETE("/devices/:id", devicesHandler.DeleteDevice)
	protected.GET("/devices/:id/token", devicesHandler.GetDeviceToken)

	return r
}
