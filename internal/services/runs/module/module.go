// Package module implements the runs module
package module

import (
	"net/http"

	"cibscope/internal/modkit"
	"cibscope/internal/modkit/httpkit"
	"cibscope/internal/services/runs/domain"
	"cibscope/internal/services/runs/repo"
	"cibscope/internal/services/runs/service"
)

// Ports exposed by the runs module
type Ports struct {
	Archive domain.ArchivePort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new runs module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("runs"),
	}, opts...)...)

	if deps.PG == nil {
		panic("runs module: requires a Postgres TxRunner")
	}
	svc := service.New(deps.PG, repo.NewPG())

	m := &Module{deps: deps}
	m.ports = Ports{Archive: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "runs" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
