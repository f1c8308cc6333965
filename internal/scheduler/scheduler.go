package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/posts"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/metrics"
)

// claimLockTTL guards one post against double publishing when several
// workers poll the same database. The Mongo claim is already atomic; the
// Redis lock additionally covers the window where a crashed worker's claim
// is manually reset to scheduled.
const claimLockTTL = 10 * time.Minute

// publishConcurrency bounds parallel publishes within one tick.
const publishConcurrency = 3

// Publisher is the platform surface the dispatcher drives. *graph.Publisher
// satisfies it.
type Publisher interface {
	PublishInstagram(ctx context.Context, mediaURL, mediaType, caption string) (string, error)
	PublishFacebook(ctx context.Context, mediaURL, mediaType, caption string) (string, error)
}

type Config struct {
	PollInterval time.Duration
	ClaimLimit   int
}

// Scheduler polls for due posts and pushes them to their platforms.
type Scheduler struct {
	repo      posts.Repository
	publisher Publisher
	notifier  posts.Notifier
	rdb       *redis.Client
	cfg       Config
	kick      chan struct{}
	now       func() time.Time
}

func New(repo posts.Repository, publisher Publisher, notifier posts.Notifier, rdb *redis.Client, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ClaimLimit <= 0 {
		cfg.ClaimLimit = 10
	}
	return &Scheduler{
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		rdb:       rdb,
		cfg:       cfg,
		kick:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Kick asks for an immediate poll, used right after a post is scheduled for
// "now" so it does not wait out the poll interval.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run polls until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Infof("scheduler: polling every %s (claim limit %d)", s.cfg.PollInterval, s.cfg.ClaimLimit)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler: stopping")
			return ctx.Err()
		case <-ticker.C:
		case <-s.kick:
		}
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("scheduler: tick failed: %v", err)
		}
	}
}

// Tick claims due posts and publishes them. Exported so the API server can
// run a single pass synchronously in tests and on demand.
func (s *Scheduler) Tick(ctx context.Context) error {
	claimed, err := s.repo.ClaimDue(ctx, s.now().UTC(), s.cfg.ClaimLimit)
	if err != nil {
		return fmt.Errorf("claim due posts: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}
	logger.Infof("scheduler: claimed %d due post(s)", len(claimed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishConcurrency)
	for _, post := range claimed {
		post := post
		g.Go(func() error {
			s.publish(gctx, post)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) publish(ctx context.Context, post posts.ScheduledPost) {
	if !s.acquireLock(ctx, post.ID) {
		logger.Debugf("scheduler: post %s locked by another worker, skipping", post.ID)
		return
	}

	platform := post.Platform()
	mediaURL := ""
	if len(post.MediaURLs) > 0 {
		mediaURL = post.MediaURLs[0]
	}

	var mediaID string
	var err error
	if post.IsFacebook {
		mediaID, err = s.publisher.PublishFacebook(ctx, mediaURL, post.MediaType, post.Caption)
	} else {
		mediaID, err = s.publisher.PublishInstagram(ctx, mediaURL, post.MediaType, post.Caption)
	}

	attemptAt := s.now().UTC()
	if err != nil {
		logger.Errorf("scheduler: publishing post %s to %s failed: %v", post.ID, platform, err)
		metrics.PostsPublished.WithLabelValues(platform, "failed").Inc()
		s.transition(ctx, post, posts.StatusFailed, err.Error(), "", attemptAt)
		s.notify(ctx, post, "post_failed",
			fmt.Sprintf("Publishing to %s failed: %v", platform, err))
		return
	}

	logger.Infof("scheduler: post %s published to %s as %s", post.ID, platform, mediaID)
	metrics.PostsPublished.WithLabelValues(platform, "posted").Inc()
	s.transition(ctx, post, posts.StatusPosted, "", mediaID, attemptAt)
	s.notify(ctx, post, "post_published",
		fmt.Sprintf("Your post was published to %s", platform))
}

func (s *Scheduler) acquireLock(ctx context.Context, postID string) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, "publish:"+postID, 1, claimLockTTL).Result()
	if err != nil {
		// Redis being down must not stall publishing; the Mongo claim
		// already serializes workers sharing one database.
		logger.Warnf("scheduler: claim lock unavailable: %v", err)
		return true
	}
	return ok
}

func (s *Scheduler) transition(ctx context.Context, post posts.ScheduledPost, to posts.Status, errorMessage, mediaID string, attemptAt time.Time) {
	if err := s.repo.SetStatus(ctx, post.ID, to, errorMessage, mediaID, attemptAt); err != nil {
		logger.Errorf("scheduler: status update for post %s failed: %v", post.ID, err)
	}
	if err := s.repo.AppendHistory(ctx, &posts.StatusHistory{
		PostID:         post.ID,
		PreviousStatus: posts.StatusPosting,
		NewStatus:      to,
		ErrorMessage:   errorMessage,
		MediaID:        mediaID,
	}); err != nil {
		logger.Warnf("scheduler: history append for post %s failed: %v", post.ID, err)
	}
}

func (s *Scheduler) notify(ctx context.Context, post posts.ScheduledPost, kind, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, post.UserID, kind, message)
}
