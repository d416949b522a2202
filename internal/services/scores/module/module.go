// Package module provides the scores module
package module

import (
	"net/http"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/services/scores/domain"
	"zeroshot/internal/services/scores/repo"
	"zeroshot/internal/services/scores/service"
)

// Ports exposed by the scores module
type Ports struct {
	Writer domain.WriterPort
	Reader domain.ReaderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new scores module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), deps.CH, binder, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Writer: svc, Reader: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "scores" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
