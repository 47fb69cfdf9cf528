package bootstrap

import (
	"context"

	"ossy/internal/adapters/ai"
	"ossy/internal/adapters/config"
	"ossy/internal/adapters/dexscreener"
	errnoop "ossy/internal/adapters/errors/noop"
	"ossy/internal/adapters/errors/sentry"
	"ossy/internal/adapters/kafka"
	redisclient "ossy/internal/adapters/redis"
	"ossy/internal/agents"
	"ossy/internal/api"
	"ossy/internal/api/health"
	"ossy/internal/api/web"
	"ossy/internal/events"
	"ossy/internal/metrics"
	"ossy/internal/services/screener"
	"ossy/internal/tools"
	"ossy/internal/tools/middleware"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
	"ossy/pkg/templates"

	"github.com/redis/go-redis/v9"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger, error tracking and metrics
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
	c.Lifecycle.WithHTTPTimeout(cfg.HTTP.ShutdownTimeout)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional Redis used by the distributed limiter
func (c *Container) MustInitInfrastructure() {
	if !c.Config.Redis.Enabled() {
		c.Log.Info("Redis not configured, LLM rate limits stay in-process")
		return
	}

	c.Log.Infow("Connecting to Redis...", "addr", c.Config.Redis.Addr())
	client, err := redisclient.NewClient(c.Context, c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Redis = client
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: External Adapters
// ========================================

// MustInitAdapters creates the market data client and the event publisher
func (c *Container) MustInitAdapters() {
	c.Adapters.DexScreener = dexscreener.NewClient(c.Config.DexScreener)
	c.Log.Infow("✓ DexScreener client initialized",
		"base_url", c.Config.DexScreener.BaseURL,
		"boosts_rpm", c.Config.DexScreener.BoostsRPM,
		"pairs_rpm", c.Config.DexScreener.PairsRPM,
	)

	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.Publisher = providePublisher(c.Config, c.Adapters.KafkaProducer)
}

// ========================================
// Phase 4: Business Logic
// ========================================

// MustInitBusiness wires the pipeline, the filterTokens tool, the planner and the orchestrator
func (c *Container) MustInitBusiness() {
	c.Business.Screener = screener.NewService(c.Adapters.DexScreener, c.Config.Screener)
	c.Business.ToolRegistry = provideToolRegistry(c.Config, c.Business.Screener, c.ErrorTracker, c.Log)
	c.Business.Planner = providePlanner(c.Context, c.Config, c.redisClient(), c.Business.ToolRegistry, c.TemplateRegistry(), c.Log)

	c.Business.Orchestrator = agents.NewOrchestrator(
		c.Business.Planner,
		c.Business.ToolRegistry,
		agents.WithPublisher(c.Adapters.Publisher),
		agents.WithRunTimeout(c.Config.HTTP.RunTimeout),
		agents.WithPromptTemplates(c.TemplateRegistry()),
	)
	c.Log.Infow("✓ Agent orchestrator initialized",
		"planner", c.Business.Planner.Name(),
		"model", c.Business.Planner.Model(),
		"tools", c.Business.ToolRegistry.List(),
	)
}

// ========================================
// Phase 5: Application Layer
// ========================================

// MustInitApplication creates the web handler, health probes and the HTTP server
func (c *Container) MustInitApplication() {
	c.Application.RunGuard = &web.RunGuard{}
	c.Application.WebHandler = web.NewHandler(c.Business.Orchestrator, c.Business.Screener, c.Application.RunGuard)

	var checks []health.Checker
	if c.Redis != nil {
		checks = append(checks, health.RedisChecker(c.Redis.Client()))
	}
	c.Application.HealthHandler = health.New(c.Log.With("component", "health"), c.Config.App.Name, c.Config.App.Version, checks...)

	metrics.RegisterRuntimeCollector(metrics.NewRuntimeCollector(c.Application.RunGuard.Active, c.redisClient()))

	server, err := api.NewServer(c.Config.HTTP, c.Application.WebHandler, c.Application.HealthHandler, c.Log.With("component", "http"))
	if err != nil {
		c.Log.Fatalf("failed to create HTTP server: %v", err)
	}
	c.Application.HTTPServer = server
}

func (c *Container) redisClient() *redis.Client {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Client()
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled() {
		log.Info("Kafka brokers not configured, screening events are not published")
		return nil
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	log.Infow("✓ Kafka producer initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return producer
}

func providePublisher(cfg *config.Config, producer *kafka.Producer) events.Publisher {
	if producer == nil {
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// provideToolRegistry registers filterTokens behind stats and timeout middleware
func provideToolRegistry(cfg *config.Config, filter tools.TokenFilter, tracker errors.Tracker, log *logger.Logger) *tools.Registry {
	filterTool := middleware.Chain(
		tools.NewFilterTokensTool(filter),
		middleware.NewStatsMiddleware(tracker),
		middleware.TimeoutMiddleware{Timeout: cfg.Screener.RunTimeout},
	)

	registry := tools.NewRegistry(filterTool)
	log.Infow("✓ Tool registry initialized", "tools", registry.List())
	return registry
}

// providePlanner picks the tool-calling planner when a model key is set and
// falls back to the static catalog planner otherwise
func providePlanner(ctx context.Context, cfg *config.Config, rdb *redis.Client, registry *tools.Registry, tmpl *templates.Registry, log *logger.Logger) agents.Planner {
	if !cfg.AI.HasLLM() {
		log.Warn("No AI provider key configured, using the static strategy planner")
		return agents.NewStaticPlanner(tmpl)
	}

	providers, err := ai.BuildRegistry(ctx, cfg.AI, rdb)
	if err != nil {
		log.Warnw("No AI provider available, using the static strategy planner", "error", err)
		return agents.NewStaticPlanner(tmpl)
	}

	provider, err := providers.Preferred(cfg.AI.DefaultProvider)
	if err != nil {
		log.Warnw("Preferred AI provider unavailable, using the static strategy planner", "error", err)
		return agents.NewStaticPlanner(tmpl)
	}

	if provider.Name() != ai.NormalizeProviderName(cfg.AI.DefaultProvider) {
		log.Warnw("Default AI provider has no key, falling back",
			"wanted", cfg.AI.DefaultProvider,
			"using", provider.Name(),
		)
	}
	log.Infow("✓ AI provider selected", "provider", provider.Name(), "model", provider.Model(), "available", providers.Names())

	return agents.NewToolCallingPlanner(provider, registry.Definitions(),
		agents.WithSampling(cfg.AI.Temperature, cfg.AI.MaxTokens),
		agents.WithTemplates(tmpl),
	)
}
