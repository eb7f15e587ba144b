package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"clubhub/internal/attendance"
	"clubhub/internal/auth"
	"clubhub/internal/club"
	"clubhub/internal/config"
	"clubhub/internal/event"
	"clubhub/internal/handler"
	"clubhub/internal/httpmiddleware"
	"clubhub/internal/identity"
	"clubhub/internal/queue"
	"clubhub/internal/store"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg.Env)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "production" || env == "prod" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	ctx := context.Background()

	var (
		db             *store.DB
		userRepo       identity.Repository
		clubRepo       club.Repository
		eventRepo      event.Repository
		attendanceRepo attendance.Repository
	)

	if cfg.StoreBackend == "memory" {
		log.Warn().Msg("using in-memory store; data is not persisted")
		eventMem := event.NewMemory()
		userRepo = identity.NewMemory()
		clubRepo = club.NewMemory()
		eventRepo = eventMem
		attendanceRepo = attendance.NewMemory(eventMem)
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		userRepo = identity.NewPostgresRepository(db.Client)
		clubRepo = club.NewPostgresRepository(db.Client)
		eventRepo = event.NewPostgresRepository(db.Client)
		attendanceRepo = attendance.NewPostgresRepository(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "clubhub:notifications")
	}

	var cache event.SnapshotCache
	if cfg.CacheBackend == "redis" {
		cache = store.NewSnapshotCache(redisClient.Client, cfg.SnapshotTTL)
	}

	users := identity.NewService(userRepo, log)
	clubs := club.NewService(clubRepo, userRepo, log)
	events := event.NewService(eventRepo, clubRepo, cache, q, log)
	recorder := attendance.NewRecorder(attendanceRepo, log)

	h := handler.New(cfg, log, users, clubs, events, recorder)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handler.Healthz(
		func() bool {
			if cfg.StoreBackend == "memory" {
				return true
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Client.PingContext(pingCtx) == nil
		},
		func() bool { return redisClient.Healthy(ctx) },
	))

	r.POST("/v1/auth/signup", h.SignUp)
	r.POST("/v1/auth/login", h.Login)

	authed := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer, userRepo))

	authed.POST("/users", h.CreateUser)
	authed.GET("/users", h.ListUsers)
	authed.GET("/users/:id", h.GetUser)

	authed.POST("/clubs", h.CreateClub)
	authed.GET("/clubs", h.ListClubs)
	authed.GET("/clubs/:id", h.GetClub)
	authed.PUT("/clubs/:id", h.UpdateClub)
	authed.DELETE("/clubs/:id", h.DeactivateClub)
	authed.PUT("/clubs/:id/coordinator", h.SetCoordinator)
	authed.POST("/clubs/:id/join", h.JoinClub)
	authed.POST("/clubs/:id/leave", h.LeaveClub)
	authed.POST("/clubs/:id/promote", h.PromoteMember)
	authed.GET("/clubs/:id/members", h.ClubRoster)
	authed.GET("/clubs/:id/stats", h.ClubStats)
	authed.GET("/clubs/:id/events", h.ListClubEvents)

	authed.POST("/events", h.CreateEvent)
	authed.GET("/events", h.ListEvents)
	authed.GET("/events/:id", h.GetEvent)
	authed.PUT("/events/:id", h.UpdateEvent)
	authed.PUT("/events/:id/status", h.AdvanceEvent)
	authed.DELETE("/events/:id", h.CancelEvent)
	authed.POST("/events/:id/register", h.RegisterForEvent)
	authed.POST("/events/:id/unregister", h.UnregisterFromEvent)
	authed.GET("/events/:id/registrations", h.EventRoster)
	authed.GET("/events/:id/availability", h.EventAvailability)
	authed.POST("/events/:id/attendance", h.MarkAttendance)
	authed.GET("/events/:id/attendance", h.AttendanceRecords)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
