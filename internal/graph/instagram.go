package graph

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// mediaInsightsConcurrency bounds parallel per-media insight fetches so a
// large grid does not burn the hourly call budget in one burst.
const mediaInsightsConcurrency = 5

type InstagramAccount struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	FollowersCount    int    `json:"followers_count"`
	FollowsCount      int    `json:"follows_count"`
	MediaCount        int    `json:"media_count"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type Media struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	MediaType     string    `json:"media_type"`
	MediaURL      string    `json:"media_url"`
	Permalink     string    `json:"permalink"`
	Timestamp     time.Time `json:"timestamp"`
	LikeCount     int       `json:"like_count"`
	CommentsCount int       `json:"comments_count"`

	// Filled by insights.
	Reach  int `json:"reach"`
	Saved  int `json:"saved"`
	Shares int `json:"shares"`
}

// EngagementRate is (likes + comments + shares + saved) / reach, zero when
// the post reached nobody.
func (m Media) EngagementRate() float64 {
	if m.Reach == 0 {
		return 0
	}
	return float64(m.LikeCount+m.CommentsCount+m.Shares+m.Saved) / float64(m.Reach)
}

type TrendPoint struct {
	Date      string `json:"date"`
	Followers int    `json:"followers"`
	Delta     int    `json:"delta"`
}

type BestTime struct {
	Hour       int     `json:"hour"`
	Posts      int     `json:"posts"`
	Engagement float64 `json:"avg_engagement"`
}

// Instagram wraps the Graph endpoints of one Instagram business account.
type Instagram struct {
	client *Client
	pageID string

	mu        sync.Mutex
	accountID string
}

func NewInstagram(client *Client, pageID string) *Instagram {
	return &Instagram{client: client, pageID: pageID}
}

// AccountID resolves (and caches) the Instagram business account id linked to
// the Facebook page.
func (ig *Instagram) AccountID(ctx context.Context) (string, error) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if ig.accountID != "" {
		return ig.accountID, nil
	}

	var resp struct {
		InstagramBusinessAccount struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	params := url.Values{"fields": {"instagram_business_account"}}
	if err := ig.client.Get(ctx, ig.pageID, params, &resp); err != nil {
		return "", err
	}
	if resp.InstagramBusinessAccount.ID == "" {
		return "", fmt.Errorf("page %s has no linked instagram business account", ig.pageID)
	}
	ig.accountID = resp.InstagramBusinessAccount.ID
	return ig.accountID, nil
}

func (ig *Instagram) AccountInfo(ctx context.Context) (*InstagramAccount, error) {
	id, err := ig.AccountID(ctx)
	if err != nil {
		return nil, err
	}
	var acct InstagramAccount
	params := url.Values{"fields": {"username,name,followers_count,follows_count,media_count,profile_picture_url"}}
	if err := ig.client.Get(ctx, id, params, &acct); err != nil {
		return nil, err
	}
	acct.ID = id
	return &acct, nil
}

type mediaListResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Caption       string `json:"caption"`
		MediaType     string `json:"media_type"`
		MediaURL      string `json:"media_url"`
		Permalink     string `json:"permalink"`
		Timestamp     string `json:"timestamp"`
		LikeCount     int    `json:"like_count"`
		CommentsCount int    `json:"comments_count"`
	} `json:"data"`
}

// RecentMedia lists the newest media with insights attached. Insight fetches
// run in parallel; an insight failure leaves that media's counters zero
// instead of failing the listing.
func (ig *Instagram) RecentMedia(ctx context.Context, limit int) ([]Media, error) {
	id, err := ig.AccountID(ctx)
	if err != nil {
		return nil, err
	}

	var resp mediaListResponse
	params := url.Values{
		"fields": {"id,caption,media_type,media_url,permalink,timestamp,like_count,comments_count"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := ig.client.Get(ctx, id+"/media", params, &resp); err != nil {
		return nil, err
	}

	media := make([]Media, len(resp.Data))
	for i, m := range resp.Data {
		ts, _ := time.Parse(time.RFC3339, m.Timestamp)
		if ts.IsZero() {
			ts, _ = time.Parse("2006-01-02T15:04:05-0700", m.Timestamp)
		}
		media[i] = Media{
			ID: m.ID, Caption: m.Caption, MediaType: m.MediaType,
			MediaURL: m.MediaURL, Permalink: m.Permalink, Timestamp: ts,
			LikeCount: m.LikeCount, CommentsCount: m.CommentsCount,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mediaInsightsConcurrency)
	for i := range media {
		i := i
		g.Go(func() error {
			reach, saved, shares, err := ig.mediaInsights(gctx, media[i].ID)
			if err != nil {
				if IsAuthError(err) {
					return err
				}
				return nil
			}
			media[i].Reach = reach
			media[i].Saved = saved
			media[i].Shares = shares
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return media, nil
}

type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func (ig *Instagram) mediaInsights(ctx context.Context, mediaID string) (reach, saved, shares int, err error) {
	var resp insightsResponse
	params := url.Values{"metric": {"reach,saved,shares"}}
	if err := ig.client.Get(ctx, mediaID+"/insights", params, &resp); err != nil {
		return 0, 0, 0, err
	}
	for _, d := range resp.Data {
		if len(d.Values) == 0 {
			continue
		}
		switch d.Name {
		case "reach":
			reach = d.Values[0].Value
		case "saved":
			saved = d.Values[0].Value
		case "shares":
			shares = d.Values[0].Value
		}
	}
	return reach, saved, shares, nil
}

type dailyInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value   int    `json:"value"`
			EndTime string `json:"end_time"`
		} `json:"values"`
	} `json:"data"`
}

// FollowerTrend reconstructs absolute follower counts for the last days by
// walking daily follower_count deltas backwards from the current total.
func (ig *Instagram) FollowerTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	acct, err := ig.AccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	id := acct.ID

	var resp dailyInsightsResponse
	params := url.Values{
		"metric": {"follower_count"},
		"period": {"day"},
		"since":  {strconv.FormatInt(time.Now().AddDate(0, 0, -days).Unix(), 10)},
		"until":  {strconv.FormatInt(time.Now().Unix(), 10)},
	}
	if err := ig.client.Get(ctx, id+"/insights", params, &resp); err != nil {
		return nil, err
	}

	type delta struct {
		date  string
		value int
	}
	var deltas []delta
	for _, d := range resp.Data {
		if d.Name != "follower_count" {
			continue
		}
		for _, v := range d.Values {
			date := v.EndTime
			if len(date) >= 10 {
				date = date[:10]
			}
			deltas = append(deltas, delta{date: date, value: v.Value})
		}
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].date < deltas[j].date })

	trend := make([]TrendPoint, len(deltas))
	running := acct.FollowersCount
	for i := len(deltas) - 1; i >= 0; i-- {
		trend[i] = TrendPoint{Date: deltas[i].date, Followers: running, Delta: deltas[i].value}
		running -= deltas[i].value
	}
	return trend, nil
}

// BestTimes buckets recent media by posting hour and ranks hours by average
// engagement.
func (ig *Instagram) BestTimes(ctx context.Context) ([]BestTime, error) {
	media, err := ig.RecentMedia(ctx, 50)
	if err != nil {
		return nil, err
	}
	return bestTimesOf(media), nil
}

func bestTimesOf(media []Media) []BestTime {
	type bucket struct {
		posts      int
		engagement float64
	}
	byHour := make(map[int]*bucket)
	for _, m := range media {
		if m.Timestamp.IsZero() {
			continue
		}
		h := m.Timestamp.UTC().Hour()
		b, ok := byHour[h]
		if !ok {
			b = &bucket{}
			byHour[h] = b
		}
		b.posts++
		b.engagement += float64(m.LikeCount + m.CommentsCount + m.Shares + m.Saved)
	}

	out := make([]BestTime, 0, len(byHour))
	for h, b := range byHour {
		out = append(out, BestTime{Hour: h, Posts: b.posts, Engagement: b.engagement / float64(b.posts)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Engagement != out[j].Engagement {
			return out[i].Engagement > out[j].Engagement
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}
