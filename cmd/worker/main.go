package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/config"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/database"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/graph"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/notifications"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/posts"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/scheduler"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

// Standalone publisher worker. Runs the same claim/publish loop the API
// server embeds, for deployments that keep publishing off the web process.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Meta.AccessToken == "" || cfg.Meta.PageID == "" {
		logger.Fatalf("META_ACCESS_TOKEN and FACEBOOK_PAGE_ID are required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis, publish locks disabled: %v", err)
			rdb = nil
		}
	}

	postsRepo, err := posts.NewMongoRepository(ctx, db)
	if err != nil {
		logger.Fatalf("failed to initialize posts repository: %v", err)
	}
	notifRepo, err := notifications.NewMongoRepository(ctx, db)
	if err != nil {
		logger.Fatalf("failed to initialize notifications repository: %v", err)
	}

	gc := graph.NewClient(cfg.Meta.AccessToken, cfg.Meta.APIVersion, cfg.Meta.CallsPerHour)
	publisher := graph.NewPublisher(gc, graph.NewInstagram(gc, cfg.Meta.PageID), graph.NewFacebook(gc, cfg.Meta.PageID))

	sched := scheduler.New(postsRepo, publisher, notifications.NewService(notifRepo), rdb, scheduler.Config{
		PollInterval: cfg.Scheduler.PollInterval,
		ClaimLimit:   cfg.Scheduler.ClaimLimit,
	})

	logger.Infof("worker started (poll=%s claim=%d)", cfg.Scheduler.PollInterval, cfg.Scheduler.ClaimLimit)
	_ = sched.Run(ctx)
	logger.Infof("worker stopped")
}
