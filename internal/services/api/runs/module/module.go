// Package module wires the run archive into the API using modkit
package module

import (
	"net/http"

	modkit "cibscope/internal/modkit"
	"cibscope/internal/modkit/httpkit"
	str "cibscope/internal/platform/strings"
	runshttp "cibscope/internal/services/api/runs/http"
	runsdom "cibscope/internal/services/runs/domain"
)

// Ports are dependencies injected into the API runs module
type Ports struct {
	Archive runsdom.ArchivePort // required
}

// Module implements the API runs module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    any
	register func(httpkit.Router)

	subrouter func(httpkit.Router) httpkit.Router
}

// New constructs the API runs module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("runs"), modkit.WithPrefix("/runs")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Archive == nil {
		panic("api runs module: expected WithPorts(runs/module.Ports) with an Archive")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
	}
	m.ports = ports

	external := b.Register
	m.register = func(r httpkit.Router) {
		runshttp.Register(r, ports.Archive)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
