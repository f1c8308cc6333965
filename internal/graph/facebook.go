package graph

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"
)

type FacebookPage struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FanCount       int    `json:"fan_count"`
	FollowersCount int    `json:"followers_count"`
}

type PagePost struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	CreatedTime time.Time `json:"created_time"`
	Reactions   int       `json:"reactions"`
	Comments    int       `json:"comments"`
	Shares      int       `json:"shares"`
}

type PageInsights struct {
	Impressions     int `json:"impressions"`
	PostEngagements int `json:"post_engagements"`
	Fans            int `json:"fans"`
}

// Facebook wraps the Graph endpoints of one Facebook page. Page-scoped calls
// use the page access token resolved via /me/accounts; the user token the
// client carries cannot read insights.
type Facebook struct {
	client *Client
	pageID string

	mu        sync.Mutex
	pageToken string
}

func NewFacebook(client *Client, pageID string) *Facebook {
	return &Facebook{client: client, pageID: pageID}
}

// PageToken resolves (and caches) the page access token.
func (fb *Facebook) PageToken(ctx context.Context) (string, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.pageToken != "" {
		return fb.pageToken, nil
	}

	var resp struct {
		Data []struct {
			ID          string `json:"id"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := fb.client.Get(ctx, "me/accounts", nil, &resp); err != nil {
		return "", err
	}
	for _, page := range resp.Data {
		if page.ID == fb.pageID {
			fb.pageToken = page.AccessToken
			return fb.pageToken, nil
		}
	}
	return "", fmt.Errorf("page %s not found among managed pages", fb.pageID)
}

func (fb *Facebook) pageParams(ctx context.Context, params url.Values) (url.Values, error) {
	token, err := fb.PageToken(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)
	return params, nil
}

func (fb *Facebook) PageInfo(ctx context.Context) (*FacebookPage, error) {
	params, err := fb.pageParams(ctx, url.Values{"fields": {"id,name,fan_count,followers_count"}})
	if err != nil {
		return nil, err
	}
	var page FacebookPage
	if err := fb.client.Get(ctx, fb.pageID, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (fb *Facebook) Insights(ctx context.Context, days int) (*PageInsights, error) {
	params, err := fb.pageParams(ctx, url.Values{
		"metric": {"page_impressions,page_post_engagements,page_fans"},
		"period": {"day"},
		"since":  {strconv.FormatInt(time.Now().AddDate(0, 0, -days).Unix(), 10)},
		"until":  {strconv.FormatInt(time.Now().Unix(), 10)},
	})
	if err != nil {
		return nil, err
	}

	var resp dailyInsightsResponse
	if err := fb.client.Get(ctx, fb.pageID+"/insights", params, &resp); err != nil {
		return nil, err
	}

	out := &PageInsights{}
	for _, d := range resp.Data {
		var total, last int
		for _, v := range d.Values {
			total += v.Value
			last = v.Value
		}
		switch d.Name {
		case "page_impressions":
			out.Impressions = total
		case "page_post_engagements":
			out.PostEngagements = total
		case "page_fans":
			// A lifetime gauge, not a daily delta.
			out.Fans = last
		}
	}
	return out, nil
}

type pagePostsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Message     string `json:"message"`
		CreatedTime string `json:"created_time"`
		Shares      struct {
			Count int `json:"count"`
		} `json:"shares"`
		Reactions struct {
			Summary struct {
				TotalCount int `json:"total_count"`
			} `json:"summary"`
		} `json:"reactions"`
		Comments struct {
			Summary struct {
				TotalCount int `json:"total_count"`
			} `json:"summary"`
		} `json:"comments"`
	} `json:"data"`
}

func (fb *Facebook) RecentPosts(ctx context.Context, limit int) ([]PagePost, error) {
	params, err := fb.pageParams(ctx, url.Values{
		"fields": {"id,message,created_time,shares,reactions.summary(true),comments.summary(true)"},
		"limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}

	var resp pagePostsResponse
	if err := fb.client.Get(ctx, fb.pageID+"/posts", params, &resp); err != nil {
		return nil, err
	}

	posts := make([]PagePost, len(resp.Data))
	for i, p := range resp.Data {
		ts, _ := time.Parse("2006-01-02T15:04:05-0700", p.CreatedTime)
		if ts.IsZero() {
			ts, _ = time.Parse(time.RFC3339, p.CreatedTime)
		}
		posts[i] = PagePost{
			ID: p.ID, Message: p.Message, CreatedTime: ts,
			Reactions: p.Reactions.Summary.TotalCount,
			Comments:  p.Comments.Summary.TotalCount,
			Shares:    p.Shares.Count,
		}
	}
	return posts, nil
}

// FollowerTrend reconstructs absolute page follower counts from daily
// page_fan_adds deltas, walking backwards from the current fan count.
func (fb *Facebook) FollowerTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	page, err := fb.PageInfo(ctx)
	if err != nil {
		return nil, err
	}

	params, err := fb.pageParams(ctx, url.Values{
		"metric": {"page_fan_adds"},
		"period": {"day"},
		"since":  {strconv.FormatInt(time.Now().AddDate(0, 0, -days).Unix(), 10)},
		"until":  {strconv.FormatInt(time.Now().Unix(), 10)},
	})
	if err != nil {
		return nil, err
	}

	var resp dailyInsightsResponse
	if err := fb.client.Get(ctx, fb.pageID+"/insights", params, &resp); err != nil {
		return nil, err
	}

	type delta struct {
		date  string
		value int
	}
	var deltas []delta
	for _, d := range resp.Data {
		if d.Name != "page_fan_adds" {
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
	running := page.FanCount
	for i := len(deltas) - 1; i >= 0; i-- {
		trend[i] = TrendPoint{Date: deltas[i].date, Followers: running, Delta: deltas[i].value}
		running -= deltas[i].value
	}
	return trend, nil
}

// BestTimes ranks posting hours of recent page posts by average engagement
// (reactions + comments + shares).
func (fb *Facebook) BestTimes(ctx context.Context) ([]BestTime, error) {
	posts, err := fb.RecentPosts(ctx, 50)
	if err != nil {
		return nil, err
	}

	media := make([]Media, len(posts))
	for i, p := range posts {
		media[i] = Media{
			Timestamp: p.CreatedTime,
			LikeCount: p.Reactions,
			// Comments and shares fold into the same engagement sum.
			CommentsCount: p.Comments,
			Shares:        p.Shares,
		}
	}
	return bestTimesOf(media), nil
}
