package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/graph"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/cache"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

// cacheTTL bounds how stale dashboard analytics may get. Graph API budgets
// are tight enough that every page load must not hit the platform.
const cacheTTL = 5 * time.Minute

const (
	recentMediaLimit = 25
	trendDays        = 30
)

// InstagramSource is the slice of the Instagram Graph client the aggregator
// consumes.
type InstagramSource interface {
	AccountInfo(ctx context.Context) (*graph.InstagramAccount, error)
	RecentMedia(ctx context.Context, limit int) ([]graph.Media, error)
	FollowerTrend(ctx context.Context, days int) ([]graph.TrendPoint, error)
	BestTimes(ctx context.Context) ([]graph.BestTime, error)
}

// FacebookSource is the slice of the Facebook Graph client the aggregator
// consumes.
type FacebookSource interface {
	PageInfo(ctx context.Context) (*graph.FacebookPage, error)
	Insights(ctx context.Context, days int) (*graph.PageInsights, error)
	RecentPosts(ctx context.Context, limit int) ([]graph.PagePost, error)
	FollowerTrend(ctx context.Context, days int) ([]graph.TrendPoint, error)
	BestTimes(ctx context.Context) ([]graph.BestTime, error)
}

// PlatformStats is one platform's slice of the overview payload. When the
// platform could not be reached the numbers are zero and Note says why.
type PlatformStats struct {
	Connected      bool    `json:"connected"`
	Name           string  `json:"name"`
	Followers      int     `json:"followers"`
	Posts          int     `json:"posts"`
	Engagement     int     `json:"engagement"`
	EngagementRate float64 `json:"engagement_rate"`
	Note           string  `json:"note,omitempty"`
}

type Overview struct {
	Instagram PlatformStats `json:"instagram"`
	Facebook  PlatformStats `json:"facebook"`
	FetchedAt time.Time     `json:"fetched_at"`
}

type EngagementBreakdown struct {
	Likes     int     `json:"likes"`
	Comments  int     `json:"comments"`
	Shares    int     `json:"shares"`
	Saved     int     `json:"saved,omitempty"`
	Reactions int     `json:"reactions,omitempty"`
	Rate      float64 `json:"rate"`
	Note      string  `json:"note,omitempty"`
}

type Engagement struct {
	Instagram EngagementBreakdown `json:"instagram"`
	Facebook  EngagementBreakdown `json:"facebook"`
	BestTimes struct {
		Instagram []graph.BestTime `json:"instagram"`
		Facebook  []graph.BestTime `json:"facebook"`
	} `json:"best_times"`
}

type Reach struct {
	InstagramReach      int    `json:"instagram_reach"`
	FacebookImpressions int    `json:"facebook_impressions"`
	InstagramNote       string `json:"instagram_note,omitempty"`
	FacebookNote        string `json:"facebook_note,omitempty"`
}

type Growth struct {
	Instagram      []graph.TrendPoint `json:"instagram"`
	Facebook       []graph.TrendPoint `json:"facebook"`
	InstagramDelta int                `json:"instagram_delta"`
	FacebookDelta  int                `json:"facebook_delta"`
	InstagramNote  string             `json:"instagram_note,omitempty"`
	FacebookNote   string             `json:"facebook_note,omitempty"`
}

type Summary struct {
	TotalFollowers  int       `json:"total_followers"`
	TotalEngagement int       `json:"total_engagement"`
	TotalPosts      int       `json:"total_posts"`
	FetchedAt       time.Time `json:"fetched_at"`
}

type Service struct {
	ig    InstagramSource
	fb    FacebookSource
	cache *cache.Store
}

func NewService(ig InstagramSource, fb FacebookSource, store *cache.Store) *Service {
	return &Service{ig: ig, fb: fb, cache: store}
}

// Overview aggregates both platforms. A failing platform yields zeroed stats
// with a note; only a total outage of both would still return data, just all
// zeroes.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	err := s.cache.Do(ctx, "analytics:overview", cacheTTL, &out, func(ctx context.Context) (interface{}, error) {
		return s.buildOverview(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) buildOverview(ctx context.Context) *Overview {
	out := &Overview{FetchedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Instagram = s.instagramStats(gctx)
		return nil
	})
	g.Go(func() error {
		out.Facebook = s.facebookStats(gctx)
		return nil
	})
	_ = g.Wait()
	return out
}

func (s *Service) instagramStats(ctx context.Context) PlatformStats {
	stats := PlatformStats{Name: "Instagram"}
	acct, err := s.ig.AccountInfo(ctx)
	if err != nil {
		return degraded(stats, "instagram", err)
	}
	stats.Connected = true
	stats.Followers = acct.FollowersCount
	stats.Posts = acct.MediaCount

	media, err := s.ig.RecentMedia(ctx, recentMediaLimit)
	if err != nil {
		logger.Warnf("analytics: instagram media unavailable: %v", err)
		return stats
	}
	var engagement, reach int
	for _, m := range media {
		engagement += m.LikeCount + m.CommentsCount + m.Shares + m.Saved
		reach += m.Reach
	}
	stats.Engagement = engagement
	if reach > 0 {
		stats.EngagementRate = float64(engagement) / float64(reach)
	}
	return stats
}

func (s *Service) facebookStats(ctx context.Context) PlatformStats {
	stats := PlatformStats{Name: "Facebook"}
	page, err := s.fb.PageInfo(ctx)
	if err != nil {
		return degraded(stats, "facebook", err)
	}
	stats.Connected = true
	stats.Followers = page.FanCount

	ins, err := s.fb.Insights(ctx, trendDays)
	if err != nil {
		logger.Warnf("analytics: facebook insights unavailable: %v", err)
		return stats
	}
	stats.Engagement = ins.PostEngagements
	if ins.Impressions > 0 {
		stats.EngagementRate = float64(ins.PostEngagements) / float64(ins.Impressions)
	}

	posts, err := s.fb.RecentPosts(ctx, recentMediaLimit)
	if err == nil {
		stats.Posts = len(posts)
	}
	return stats
}

func degraded(stats PlatformStats, platform string, err error) PlatformStats {
	logger.Warnf("analytics: %s unavailable: %v", platform, err)
	stats.Note = platform + " data unavailable"
	return stats
}

func (s *Service) Engagement(ctx context.Context) (*Engagement, error) {
	var out Engagement
	err := s.cache.Do(ctx, "analytics:engagement", cacheTTL, &out, func(ctx context.Context) (interface{}, error) {
		return s.buildEngagement(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) buildEngagement(ctx context.Context) *Engagement {
	out := &Engagement{}

	media, err := s.ig.RecentMedia(ctx, recentMediaLimit)
	if err != nil {
		out.Instagram.Note = "instagram data unavailable"
		logger.Warnf("analytics: instagram engagement unavailable: %v", err)
	} else {
		var reach int
		for _, m := range media {
			out.Instagram.Likes += m.LikeCount
			out.Instagram.Comments += m.CommentsCount
			out.Instagram.Shares += m.Shares
			out.Instagram.Saved += m.Saved
			reach += m.Reach
		}
		if reach > 0 {
			total := out.Instagram.Likes + out.Instagram.Comments + out.Instagram.Shares + out.Instagram.Saved
			out.Instagram.Rate = float64(total) / float64(reach)
		}
	}

	posts, err := s.fb.RecentPosts(ctx, recentMediaLimit)
	if err != nil {
		out.Facebook.Note = "facebook data unavailable"
		logger.Warnf("analytics: facebook engagement unavailable: %v", err)
	} else {
		for _, p := range posts {
			out.Facebook.Reactions += p.Reactions
			out.Facebook.Comments += p.Comments
			out.Facebook.Shares += p.Shares
		}
		if ins, err := s.fb.Insights(ctx, trendDays); err == nil && ins.Impressions > 0 {
			total := out.Facebook.Reactions + out.Facebook.Comments + out.Facebook.Shares
			out.Facebook.Rate = float64(total) / float64(ins.Impressions)
		}
	}

	if times, err := s.ig.BestTimes(ctx); err == nil {
		out.BestTimes.Instagram = times
	}
	if times, err := s.fb.BestTimes(ctx); err == nil {
		out.BestTimes.Facebook = times
	}
	return out
}

func (s *Service) Reach(ctx context.Context) (*Reach, error) {
	var out Reach
	err := s.cache.Do(ctx, "analytics:reach", cacheTTL, &out, func(ctx context.Context) (interface{}, error) {
		r := &Reach{}
		if media, err := s.ig.RecentMedia(ctx, recentMediaLimit); err != nil {
			r.InstagramNote = "instagram data unavailable"
		} else {
			for _, m := range media {
				r.InstagramReach += m.Reach
			}
		}
		if ins, err := s.fb.Insights(ctx, trendDays); err != nil {
			r.FacebookNote = "facebook data unavailable"
		} else {
			r.FacebookImpressions = ins.Impressions
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Growth(ctx context.Context) (*Growth, error) {
	var out Growth
	err := s.cache.Do(ctx, "analytics:growth", cacheTTL, &out, func(ctx context.Context) (interface{}, error) {
		g := &Growth{}
		if trend, err := s.ig.FollowerTrend(ctx, trendDays); err != nil {
			g.InstagramNote = "instagram data unavailable"
		} else {
			g.Instagram = trend
			g.InstagramDelta = trendDelta(trend)
		}
		if trend, err := s.fb.FollowerTrend(ctx, trendDays); err != nil {
			g.FacebookNote = "facebook data unavailable"
		} else {
			g.Facebook = trend
			g.FacebookDelta = trendDelta(trend)
		}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func trendDelta(trend []graph.TrendPoint) int {
	if len(trend) == 0 {
		return 0
	}
	return trend[len(trend)-1].Followers - trend[0].Followers
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	overview, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalFollowers:  overview.Instagram.Followers + overview.Facebook.Followers,
		TotalEngagement: overview.Instagram.Engagement + overview.Facebook.Engagement,
		TotalPosts:      overview.Instagram.Posts + overview.Facebook.Posts,
		FetchedAt:       overview.FetchedAt,
	}, nil
}
