package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/socialsidekick/socialsidekick/backend/api/handlers"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/ai"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/analytics"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/config"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/database"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/graph"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/mail"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/notifications"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/posts"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/scheduler"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/sessions"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/storage"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/users"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/cache"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/metrics"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v meta=%v gemini=%v brevo=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Meta.AccessToken != "",
		cfg.Gemini.APIKey != "", cfg.Brevo.APIKey != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.AllowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Session-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter, cache and publish locks can use it
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()

	// Connect to MongoDB with retry/backoff to tolerate startup races
	const maxAttempts = 5
	backoff := time.Second
	var client *mongo.Client
	var errConn error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if errConn != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	// Users and sessions. Prefer Redis for session storage when available.
	userSvc := users.NewService(users.NewMongoUserRepository(db.Collection("users")))
	var sessionsSvc *sessions.Service
	if rdb != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, "session:"))
		logger.Infof("Using Redis for session storage")
	} else {
		sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
		// Mongo does not expire session documents on its own
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if n, err := sessionsSvc.CleanupExpired(ctx); err != nil {
					logger.Warnf("session cleanup failed: %v", err)
				} else if n > 0 {
					logger.Infof("session cleanup removed %d expired session(s)", n)
				}
			}
		}()
	}

	notifRepo, err := notifications.NewMongoRepository(ctx, db)
	if err != nil {
		logger.Fatalf("failed to initialize notifications repository: %v", err)
	}
	notifSvc := notifications.NewService(notifRepo)

	postsRepo, err := posts.NewMongoRepository(ctx, db)
	if err != nil {
		logger.Fatalf("failed to initialize posts repository: %v", err)
	}
	postsSvc := posts.NewService(postsRepo, notifSvc)

	// Graph API clients and analytics (nil sources degrade gracefully per platform)
	var igSvc *graph.Instagram
	var fbSvc *graph.Facebook
	var publisher *graph.Publisher
	if cfg.Meta.AccessToken != "" && cfg.Meta.PageID != "" {
		gc := graph.NewClient(cfg.Meta.AccessToken, cfg.Meta.APIVersion, cfg.Meta.CallsPerHour)
		igSvc = graph.NewInstagram(gc, cfg.Meta.PageID)
		fbSvc = graph.NewFacebook(gc, cfg.Meta.PageID)
		publisher = graph.NewPublisher(gc, igSvc, fbSvc)
	} else {
		logger.Warnf("Meta credentials missing, publishing and analytics are disabled")
	}

	var analyticsSvc *analytics.Service
	if igSvc != nil && fbSvc != nil {
		analyticsSvc = analytics.NewService(igSvc, fbSvc, cache.New(rdb, "analytics:"))
	}

	// Gemini-backed caption and calendar generation
	var aiSvc *ai.Service
	if cfg.Gemini.APIKey != "" {
		gen, err := ai.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warnf("failed to initialize Gemini client: %v", err)
		} else {
			aiSvc = ai.NewService(gen)
		}
	}

	// Media storage (MinIO)
	var mediaStore *storage.MediaStorage
	if minioCfg := storage.LoadMinIOConfig(); minioCfg.Endpoint != "" {
		mediaStore, err = storage.NewMediaStorage(minioCfg)
		if err != nil {
			logger.Warnf("failed to initialize media storage: %v", err)
		}
	}

	// Email campaigns (Brevo)
	var mailSvc *mail.Service
	if cfg.Brevo.APIKey != "" {
		mailSvc = mail.NewService(
			mail.NewBrevoClient(cfg.Brevo.APIKey),
			mail.NewMongoRepository(db),
			mail.Sender{Name: cfg.Brevo.SenderName, Email: cfg.Brevo.SenderMail},
		)
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"mongodb":   true,
			"redis":     rdb != nil || cfg.Redis.Host == "",
			"meta":      publisher != nil,
			"gemini":    aiSvc != nil,
			"storage":   mediaStore != nil,
			"brevo":     mailSvc != nil,
			"analytics": analyticsSvc != nil,
		}
		if err := client.Ping(c.Request.Context(), nil); err != nil {
			deps["mongodb"] = false
			ready = false
		}
		if !deps["redis"] {
			ready = false
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterSwagger(r)

	authHandler := handlers.NewAuthHandler(userSvc, sessionsSvc)
	authHandler.Register(r.Group("/"))

	// Background publisher loop. It doubles as the Kicker for immediate posts.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && publisher != nil {
		sched = scheduler.New(postsRepo, publisher, notifSvc, rdb, scheduler.Config{
			PollInterval: cfg.Scheduler.PollInterval,
			ClaimLimit:   cfg.Scheduler.ClaimLimit,
		})
		go sched.Run(ctx)
		logger.Infof("Scheduler started (poll=%s claim=%d)", cfg.Scheduler.PollInterval, cfg.Scheduler.ClaimLimit)
	}

	// Everything under /api requires a valid session
	api := r.Group("/api", middleware.SessionAuth(authHandler))

	var kicker handlers.Kicker
	if sched != nil {
		kicker = sched
	}
	handlers.NewPostsHandler(postsSvc, kicker).Register(api)
	handlers.NewAnalyticsHandler(analyticsSvc).Register(api)
	handlers.NewNotificationsHandler(notifSvc).Register(api)
	handlers.NewAIHandler(aiSvc).Register(api)
	handlers.NewMediaHandler(mediaHandlerStore(mediaStore)).Register(api)
	handlers.NewMailHandler(mailSvc).Register(api)
	handlers.NewPlatformHandler(cfg, postsSvc, analyticsSvc, mediaStore != nil).Register(api)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("services: posts=true analytics=%v ai=%v mail=%v storage=%v scheduler=%v",
		analyticsSvc != nil, aiSvc != nil, mailSvc != nil, mediaStore != nil, sched != nil)
	logger.Infof("Starting API server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// mediaHandlerStore keeps a nil *storage.MediaStorage from becoming a
// non-nil interface value inside the handler.
func mediaHandlerStore(s *storage.MediaStorage) handlers.MediaStore {
	if s == nil {
		return nil
	}
	return s
}
