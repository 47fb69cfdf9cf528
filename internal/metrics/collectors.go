package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RuntimeCollector reports process state that is read on scrape rather than
// counted: the run guard and the Redis pool used by the distributed limiter.
type RuntimeCollector struct {
	redis      *redis.Client
	runActive  func() bool
	runBusy    *prometheus.Desc
	redisConns *prometheus.Desc
	redisHits  *prometheus.Desc
	redisMiss  *prometheus.Desc
}

// NewRuntimeCollector creates the collector. redis may be nil when the
// limiter runs in local mode.
func NewRuntimeCollector(runActive func() bool, rdb *redis.Client) *RuntimeCollector {
	return &RuntimeCollector{
		redis:     rdb,
		runActive: runActive,
		runBusy: prometheus.NewDesc(
			"ossy_run_in_progress",
			"Whether an agent run currently holds the run guard (0/1)",
			nil, nil,
		),
		redisConns: prometheus.NewDesc(
			"ossy_redis_pool_connections",
			"Redis pool connections by state",
			[]string{"state"}, // state: total|idle|stale
			nil,
		),
		redisHits: prometheus.NewDesc(
			"ossy_redis_pool_hits_total",
			"Times a free connection was found in the pool",
			nil, nil,
		),
		redisMiss: prometheus.NewDesc(
			"ossy_redis_pool_misses_total",
			"Times a free connection was not found in the pool",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runBusy
	ch <- c.redisConns
	ch <- c.redisHits
	ch <- c.redisMiss
}

// Collect implements prometheus.Collector
func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	if c.runActive != nil {
		busy := 0.0
		if c.runActive() {
			busy = 1
		}
		ch <- prometheus.MustNewConstMetric(c.runBusy, prometheus.GaugeValue, busy)
	}

	if c.redis == nil {
		return
	}

	stats := c.redis.PoolStats()
	ch <- prometheus.MustNewConstMetric(c.redisConns, prometheus.GaugeValue, float64(stats.TotalConns), "total")
	ch <- prometheus.MustNewConstMetric(c.redisConns, prometheus.GaugeValue, float64(stats.IdleConns), "idle")
	ch <- prometheus.MustNewConstMetric(c.redisConns, prometheus.GaugeValue, float64(stats.StaleConns), "stale")
	ch <- prometheus.MustNewConstMetric(c.redisHits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.redisMiss, prometheus.CounterValue, float64(stats.Misses))
}

// RegisterRuntimeCollector registers the collector with the default registry
func RegisterRuntimeCollector(collector *RuntimeCollector) {
	prometheus.MustRegister(collector)
}
