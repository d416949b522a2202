// Package module provides the records module
package module

import (
	"net/http"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/services/records/domain"
	"zeroshot/internal/services/records/repo"
	"zeroshot/internal/services/records/service"
)

// Ports exposed by the records module
type Ports struct {
	Reader   domain.ReaderPort
	Ingester domain.IngesterPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new records module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit:  opts.HardLimit,
		FlushEvery: opts.FlushEvery,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Reader: svc, Ingester: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "records" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
