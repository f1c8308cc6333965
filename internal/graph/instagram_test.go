package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstagramAccountIDIsCached(t *testing.T) {
	var lookups atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v19.0/page1", func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		fmt.Fprint(w, `{"instagram_business_account":{"id":"ig42"}}`)
	})
	client, _ := newTestClient(t, mux)
	ig := NewInstagram(client, "page1")

	for i := 0; i < 3; i++ {
		id, err := ig.AccountID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ig42", id)
	}
	assert.EqualValues(t, 1, lookups.Load())
}

func TestInstagramRecentMediaAttachesInsights(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v19.0/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"instagram_business_account":{"id":"ig42"}}`)
	})
	mux.HandleFunc("/v19.0/ig42/media", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"id":"m1","caption":"a","media_type":"IMAGE","timestamp":"2026-03-01T10:00:00+0000","like_count":10,"comments_count":2},
			{"id":"m2","caption":"b","media_type":"IMAGE","timestamp":"2026-03-02T18:00:00+0000","like_count":4,"comments_count":1}
		]}`)
	})
	mux.HandleFunc("/v19.0/m1/insights", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"name":"reach","values":[{"value":100}]},
			{"name":"saved","values":[{"value":5}]},
			{"name":"shares","values":[{"value":3}]}
		]}`)
	})
	mux.HandleFunc("/v19.0/m2/insights", func(w http.ResponseWriter, r *http.Request) {
		// Insight failures leave counters at zero without failing the
		// listing.
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"unsupported","code":100}}`)
	})
	client, _ := newTestClient(t, mux)
	ig := NewInstagram(client, "page1")

	media, err := ig.RecentMedia(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, media, 2)

	assert.Equal(t, 100, media[0].Reach)
	assert.Equal(t, 5, media[0].Saved)
	assert.Equal(t, 3, media[0].Shares)
	// (10 likes + 2 comments + 3 shares + 5 saved) / 100 reach
	assert.InDelta(t, 0.20, media[0].EngagementRate(), 1e-9)

	assert.Equal(t, 0, media[1].Reach)
	assert.Equal(t, float64(0), media[1].EngagementRate())
}

func TestInstagramFollowerTrendWalksBackwards(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v19.0/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"instagram_business_account":{"id":"ig42"}}`)
	})
	mux.HandleFunc("/v19.0/ig42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"username":"cafe","followers_count":1000}`)
	})
	mux.HandleFunc("/v19.0/ig42/insights", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"name":"follower_count","values":[
			{"value":5,"end_time":"2026-03-01T08:00:00+0000"},
			{"value":-2,"end_time":"2026-03-02T08:00:00+0000"},
			{"value":7,"end_time":"2026-03-03T08:00:00+0000"}
		]}]}`)
	})
	client, _ := newTestClient(t, mux)
	ig := NewInstagram(client, "page1")

	trend, err := ig.FollowerTrend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, trend, 3)

	// The latest day carries the current total; earlier days subtract the
	// following deltas.
	assert.Equal(t, TrendPoint{Date: "2026-03-03", Followers: 1000, Delta: 7}, trend[2])
	assert.Equal(t, TrendPoint{Date: "2026-03-02", Followers: 993, Delta: -2}, trend[1])
	assert.Equal(t, TrendPoint{Date: "2026-03-01", Followers: 995, Delta: 5}, trend[0])
}

func TestBestTimesRanksHoursByEngagement(t *testing.T) {
	at := func(hour, likes int) Media {
		return Media{
			Timestamp: time.Date(2026, 3, 1, hour, 30, 0, 0, time.UTC),
			LikeCount: likes,
		}
	}
	media := []Media{at(9, 10), at(9, 20), at(18, 100), at(23, 5)}

	best := bestTimesOf(media)
	require.Len(t, best, 3)
	assert.Equal(t, 18, best[0].Hour)
	assert.Equal(t, float64(100), best[0].Engagement)
	assert.Equal(t, 9, best[1].Hour)
	assert.Equal(t, 2, best[1].Posts)
	assert.Equal(t, float64(15), best[1].Engagement)
	assert.Equal(t, 23, best[2].Hour)
}
