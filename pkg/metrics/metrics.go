package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sidekick", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sidekick", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	GraphAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sidekick", Name: "graph_api_calls_total", Help: "Number of Meta Graph API requests by endpoint and outcome."},
		[]string{"endpoint", "outcome"},
	)
	PostsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sidekick", Name: "posts_published_total", Help: "Number of scheduled posts the worker attempted to publish, by platform and result."},
		[]string{"platform", "result"},
	)
	AnalyticsCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sidekick", Name: "analytics_cache_total", Help: "Analytics cache lookups by result (hit|miss)."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(GraphAPICalls)
	reg.MustRegister(PostsPublished)
	reg.MustRegister(AnalyticsCacheHits)
}
