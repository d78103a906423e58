// Package api composes the HTTP modules into one mountable surface
package api

import (
	"quotary/internal/modkit"
	"quotary/internal/modkit/httpkit"
	"quotary/internal/modkit/module"
	"quotary/internal/platform/config"
	"quotary/internal/platform/logger"
	"quotary/internal/platform/store"

	quotesmod "quotary/internal/services/quotes/module"
)

// Options carries everything Mount needs
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger
}

// Mount attaches the API under /api/v1 with the common middleware stack
func Mount(r httpkit.Router, opts Options) {
	deps := modkit.Deps{
		Log: *opts.Logger,
		Cfg: opts.Config,
		PG:  opts.Store.PG,
	}

	mods := []module.Module{
		quotesmod.New(deps),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
			module.Register(m.Name(), m.Ports())
		}
	})
}
