// Package module wires the quotes service into HTTP via modkit
package module

import (
	"net/http"

	"quotary/internal/core/profanity"
	"quotary/internal/modkit"
	"quotary/internal/modkit/httpkit"
	"quotary/internal/platform/strings"
	"quotary/internal/services/quotes/domain"

	quoteshttp "quotary/internal/services/quotes/http"
	"quotary/internal/services/quotes/repo"
	"quotary/internal/services/quotes/service"
)

// Ports exposes the quote ports for cross-module lookups
type Ports struct {
	Voter  domain.VoterPort
	Feed   domain.FeedPort
	Ingest domain.IngestPort
}

// Module implements the quotes module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc *service.Svc
}

// New constructs the quotes module. Config keys are read under the
// QUOTES_ prefix
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("quotes"),
		modkit.WithPrefix("/quotes"),
	}, opts...)...)

	cfg := deps.Cfg.Prefix("QUOTES_")
	svc := service.New(deps.PG, repo.NewPG(), profanity.MustNew(), service.Config{
		VoteThreshold: cfg.MayInt("VOTE_THRESHOLD", 3),
		NSFWThreshold: cfg.MayInt("NSFW_THRESHOLD", 1),
		ScanBatch:     cfg.MayInt("SCAN_BATCH", 64),
	})

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
	}
	m.ports = Ports{Voter: svc, Feed: svc, Ingest: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		quoteshttp.Register(r, m.svc, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Service exposes the underlying service for CLI wiring
func (m *Module) Service() *service.Svc { return m.svc }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name is the module name
func (m *Module) Name() string { return strings.MustString(m.name, "module name") }

// Prefix is the module route prefix
func (m *Module) Prefix() string { return strings.MustPrefix(m.prefix) }

// Middlewares is the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
