package bootstrap

import (
	"context"
	"sync"

	"ossy/internal/adapters/config"
	"ossy/internal/adapters/dexscreener"
	"ossy/internal/adapters/kafka"
	redisclient "ossy/internal/adapters/redis"
	"ossy/internal/agents"
	"ossy/internal/api"
	"ossy/internal/api/health"
	"ossy/internal/api/web"
	"ossy/internal/events"
	"ossy/internal/services/screener"
	"ossy/internal/tools"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
	"ossy/pkg/templates"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional, nil when REDIS_HOST is empty)
	Redis *redisclient.Client

	// External Adapters
	Adapters *Adapters

	// Business Logic
	Business *Business

	// Application Layer
	Application *Application

	// Prompt and summary templates
	Templates *templates.Registry

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups all external adapters
type Adapters struct {
	DexScreener   *dexscreener.Client
	KafkaProducer *kafka.Producer // nil when KAFKA_BROKERS is empty
	Publisher     events.Publisher
}

// Business groups business logic components
type Business struct {
	Screener     *screener.Service
	ToolRegistry *tools.Registry
	Planner      agents.Planner
	Orchestrator *agents.Orchestrator
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	WebHandler    *web.Handler
	RunGuard      *web.RunGuard
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Business:    &Business{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitAdapters()
	c.MustInitBusiness()
	c.MustInitApplication()
}

// Start starts the HTTP server in the background
func (c *Container) Start() error {
	if c.Application.HTTPServer == nil {
		return errors.Wrap(errors.ErrInternal, "container not initialized")
	}

	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Infow("✓ All systems operational",
		"planner", c.Business.Planner.Name(),
		"model", c.Business.Planner.Model(),
		"addr", c.Config.HTTP.Addr,
	)
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Adapters.KafkaProducer,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// TemplateRegistry returns the prompt templates, loading AI_PROMPTS_DIR on
// first use and falling back to the embedded ones
func (c *Container) TemplateRegistry() *templates.Registry {
	if c.Templates != nil {
		return c.Templates
	}

	c.Templates = templates.Get()
	if dir := c.Config.AI.PromptsDir; dir != "" {
		reg, err := templates.NewRegistry(dir)
		if err != nil {
			c.Log.Fatalf("failed to load prompt templates from %s: %v", dir, err)
		}
		c.Templates = reg
		c.Log.Infow("✓ Prompt templates loaded", "dir", dir, "templates", reg.List())
	}
	return c.Templates
}
