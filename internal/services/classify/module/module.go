// Package module implements the classify module
package module

import (
	"net/http"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/services/classify/domain"
	"zeroshot/internal/services/classify/repo"
	"zeroshot/internal/services/classify/service"
)

// Ports exposed by the classify module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new classify module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("classify"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("classify module: expected WithPorts(classify/domain.Ports)")
	}
	if ports.Records == nil || ports.Scores == nil || ports.Classifier == nil {
		panic("classify module: Ports missing Records, Scores, or Classifier")
	}

	cfg := FromConfig(deps.Cfg)
	runner := service.New(
		ports.Records,
		ports.Scores,
		ports.Classifier,
		repokit.TxRunner(deps.PG),
		repo.NewPG(),
		service.Config{
			BatchSize: cfg.BatchSize,
			PageSize:  cfg.PageSize,
		},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: runner}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "classify" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
