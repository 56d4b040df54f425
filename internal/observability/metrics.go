package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsWritten counts post upserts by outcome ("created" or "updated").
	PostsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideafoundry_posts_written_total",
		Help: "Total number of post upserts by outcome",
	}, []string{"outcome"})

	// PostValidationFailures counts rejected post submissions.
	PostValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideafoundry_post_validation_failures_total",
		Help: "Total number of post submissions rejected by validation",
	})

	// SlugCollisions counts suffix retries while resolving a unique slug.
	SlugCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideafoundry_slug_collisions_total",
		Help: "Total number of slug collisions resolved with a numeric suffix",
	})

	// SchemaDriftEvents counts reads that were downgraded because a table or column is missing.
	SchemaDriftEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideafoundry_schema_drift_total",
		Help: "Total number of reads downgraded due to a missing table or column",
	}, []string{"operation"})

	// CacheRequests counts cache lookups by key family and result ("hit" or "miss").
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideafoundry_cache_requests_total",
		Help: "Total number of cache lookups by key family and result",
	}, []string{"family", "result"})

	// RedisErrors counts Redis command errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideafoundry_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)
