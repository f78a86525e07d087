// Package api provides the HTTP API for the application
package api

import (
	"cibscope/internal/platform/config"
	"cibscope/internal/platform/logger"
	phttp "cibscope/internal/platform/net/http"
	"cibscope/internal/platform/store"

	"cibscope/internal/modkit"
	"cibscope/internal/modkit/httpkit"
	"cibscope/internal/modkit/module"

	metamod "cibscope/internal/services/api/meta/module"
	apirunsmod "cibscope/internal/services/api/runs/module"
	apiscanmod "cibscope/internal/services/api/scan/module"
	runsmod "cibscope/internal/services/runs/module"
	scanmod "cibscope/internal/services/scan/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		RDS: opt.Store.RDS,
	}

	// Construct the engine and archive modules first and extract their ports
	engine := scanmod.New(deps, scanmod.Options{})
	runner := module.MustPortsOf[scanmod.Ports](engine).Runner

	archive := runsmod.New(deps)
	archivePort := module.MustPortsOf[runsmod.Ports](archive).Archive

	// API modules that depend on the engine and archive ports
	apiScan := apiscanmod.New(
		deps,
		modkit.WithPorts(apiscanmod.Ports{
			Runner:  runner,
			Archive: archivePort,
		}),
	)
	apiRuns := apirunsmod.New(
		deps,
		modkit.WithPorts(apirunsmod.Ports{
			Archive: archivePort,
		}),
	)

	mods := []module.Module{
		metamod.New(deps),
		engine,  // include the engine so its ports are registered
		archive, // likewise the archive
		apiScan,
		apiRuns,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
