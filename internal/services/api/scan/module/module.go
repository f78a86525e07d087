// Package module wires scan into the API using modkit
package module

import (
	"net/http"

	modkit "cibscope/internal/modkit"
	"cibscope/internal/modkit/httpkit"
	str "cibscope/internal/platform/strings"
	scanhttp "cibscope/internal/services/api/scan/http"
	scansvc "cibscope/internal/services/api/scan/service"
	runsdom "cibscope/internal/services/runs/domain"
	scandom "cibscope/internal/services/scan/domain"
)

// Ports are dependencies injected into the API scan module
type Ports struct {
	Runner  scandom.RunnerPort  // required
	Archive runsdom.ArchivePort // optional
}

// Module implements the API scan module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    any
	register func(httpkit.Router)

	subrouter func(httpkit.Router) httpkit.Router

	svc scansvc.Service
}

// New constructs the API scan module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("scan"), modkit.WithPrefix("/scan")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Runner == nil {
		panic("api scan module: expected WithPorts(scan/module.Ports) with a Runner")
	}
	svc := scansvc.New(ports.Runner, ports.Archive)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = ports

	external := b.Register
	m.register = func(r httpkit.Router) {
		scanhttp.Register(r, m.svc)
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
