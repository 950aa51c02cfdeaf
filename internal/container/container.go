package container

import (
	"fmt"

	"gocausal/adapters/rng"
	"gocausal/app"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/ports"
)

// Container holds the application dependencies of one process
type Container struct {
	Config *config.Config
	Logger *internal.Logger
	RNG    ports.RNGPort

	Analysis *app.AnalysisService
}

// Option customizes a container before the services are built
type Option func(*Container)

// WithLogger replaces the logger derived from the config
func WithLogger(logger *internal.Logger) Option {
	return func(c *Container) { c.Logger = logger }
}

// WithRNG replaces the seeded RNG adapter
func WithRNG(r ports.RNGPort) Option {
	return func(c *Container) { c.RNG = r }
}

// New creates a new dependency injection container
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}
	if c.RNG == nil {
		c.RNG = rng.NewSeeded()
	}

	c.Analysis = app.NewAnalysisService(cfg, c.RNG, c.Logger)
	c.Logger.Debug("Container initialized: mode=%s iterations=%d workers=%d",
		cfg.Analysis.Mode, cfg.Permutation.Iterations, cfg.Permutation.Workers)
	return c, nil
}

// Shutdown flushes the logger
func (c *Container) Shutdown() error {
	if c.Logger == nil {
		return nil
	}
	return c.Logger.Sync()
}
