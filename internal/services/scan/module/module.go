// Package module implements the scan module
package module

import (
	"net/http"

	"cibscope/internal/adapters/embed"
	"cibscope/internal/core/detect"
	"cibscope/internal/modkit"
	"cibscope/internal/modkit/httpkit"
	"cibscope/internal/services/scan/domain"
	"cibscope/internal/services/scan/service"
)

// Ports exposed by the scan module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new scan module. The embedding provider and cache are
// wired from config; without an embed URL the semantic stage stays off.
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("scan"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.EmbedBaseURL != "" {
		cfg.EmbedBaseURL = overrides.EmbedBaseURL
	}
	if overrides.EmbedBatch != 0 {
		cfg.EmbedBatch = overrides.EmbedBatch
	}

	var sem detect.SemanticConfig
	if cfg.EmbedBaseURL != "" {
		sem.Provider = embed.NewClient(embed.Options{
			BaseURL: cfg.EmbedBaseURL,
			Model:   cfg.EmbedModel,
			APIKey:  cfg.EmbedAPIKey,
		})
		sem.BatchSize = cfg.EmbedBatch
		// key cached vectors by endpoint, model, and the per-run dataset
		// fingerprint the engine supplies through Scope
		sem.Scope = func(dataset string) func(string) string {
			return embed.Keyer(embed.Fingerprint(cfg.EmbedBaseURL, cfg.EmbedModel, dataset))
		}
		if deps.RDS != nil {
			sem.Cache = embed.NewRedisCache(deps.RDS, cfg.CacheTTL)
		} else {
			sem.Cache = embed.NewMemoryCache()
		}
	}

	runner := service.New(service.Config{
		Workers:  cfg.Workers,
		Semantic: sem,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: runner}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "scan" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
