package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DexScreener metrics
	DexScreenerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_dexscreener_calls_total",
			Help: "Total number of DexScreener API calls",
		},
		[]string{"endpoint", "status"}, // status: success|error|not_found
	)

	DexScreenerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ossy_dexscreener_latency_seconds",
			Help:    "DexScreener API latency in seconds, limiter wait included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Screening pipeline metrics
	ScreenerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_screener_runs_total",
			Help: "Total number of screening pipeline runs",
		},
		[]string{"status", "sort"}, // status: success|error
	)

	ScreenerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ossy_screener_duration_seconds",
			Help:    "Screening pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	ScreenerCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ossy_screener_candidates",
			Help:    "Candidates fetched in detail per run",
			Buckets: prometheus.LinearBuckets(0, 5, 7),
		},
	)

	ScreenerKept = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ossy_screener_kept_tokens",
			Help:    "Tokens passing all filters per run",
			Buckets: prometheus.LinearBuckets(0, 5, 7),
		},
	)

	ScreenerDetailDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_screener_detail_drops_total",
			Help: "Candidates dropped before filtering",
		},
		[]string{"reason"}, // reason: error|timeout|no_pair
	)

	// Agent metrics
	AgentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_agent_runs_total",
			Help: "Total number of agent runs by outcome",
		},
		[]string{"planner", "outcome"}, // outcome: tokens|declined|model_unavailable|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ossy_agent_latency_seconds",
			Help:    "Agent run latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"planner"},
	)

	// LLM metrics
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_llm_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"provider", "model", "status"}, // status: success|error|rate_limited
	)

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ossy_llm_latency_seconds",
			Help:    "Language model call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_llm_tokens_total",
			Help: "Total tokens used by language model calls",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ossy_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ossy_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ossy_kafka_messages_total",
			Help: "Total Kafka messages published",
		},
		[]string{"topic", "status"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			DexScreenerCalls,
			DexScreenerLatency,

			ScreenerRuns,
			ScreenerDuration,
			ScreenerCandidates,
			ScreenerKept,
			ScreenerDetailDrops,

			AgentRuns,
			AgentLatency,

			LLMCalls,
			LLMLatency,
			LLMTokens,

			ToolExecutions,
			ToolLatency,

			HTTPRequests,
			HTTPDuration,

			KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordDexScreenerCall records one market data API call
func RecordDexScreenerCall(endpoint, status string, latency time.Duration) {
	DexScreenerCalls.WithLabelValues(endpoint, status).Inc()
	DexScreenerLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

// RecordScreenerRun records a finished pipeline run
func RecordScreenerRun(sortKey string, candidates, kept int, duration time.Duration, err error) {
	ScreenerRuns.WithLabelValues(statusOf(err), sortKey).Inc()
	ScreenerDuration.Observe(duration.Seconds())
	if err == nil {
		ScreenerCandidates.Observe(float64(candidates))
		ScreenerKept.Observe(float64(kept))
	}
}

// RecordDetailDrop records a candidate excluded before filtering
func RecordDetailDrop(reason string) {
	ScreenerDetailDrops.WithLabelValues(reason).Inc()
}

// RecordAgentRun records a finished agent run
func RecordAgentRun(planner, outcome string, latency time.Duration) {
	AgentRuns.WithLabelValues(planner, outcome).Inc()
	AgentLatency.WithLabelValues(planner).Observe(latency.Seconds())
}

// RecordLLMCall records a language model call
func RecordLLMCall(provider, model string, latency time.Duration, inputTokens, outputTokens int, err error) {
	LLMCalls.WithLabelValues(provider, model, statusOf(err)).Inc()
	LLMLatency.WithLabelValues(provider, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		LLMTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordLLMRateLimited records a call rejected by the local limiter
func RecordLLMRateLimited(provider, model string) {
	LLMCalls.WithLabelValues(provider, model, "rate_limited").Inc()
}

// RecordToolExecution records a tool execution
func RecordToolExecution(tool string, latency time.Duration, err error) {
	ToolExecutions.WithLabelValues(tool, statusOf(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordKafkaMessage records a publish attempt
func RecordKafkaMessage(topic string, err error) {
	KafkaMessages.WithLabelValues(topic, statusOf(err)).Inc()
}
