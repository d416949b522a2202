// Package module wires the records API into the router using modkit
package module

import (
	"net/http"

	modkit "zeroshot/internal/modkit"
	"zeroshot/internal/modkit/httpkit"
	str "zeroshot/internal/platform/strings"
	recordshttp "zeroshot/internal/services/api/records/http"
	recdom "zeroshot/internal/services/records/domain"
)

// Ports are the dependencies this API module needs injected
type Ports struct {
	Reader recdom.ReaderPort
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs a records API module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("records"),
		modkit.WithPrefix("/records"),
	}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Reader == nil {
		panic("records api module: expected WithPorts(records/module.Ports) with a Reader")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		recordshttp.Register(r, ports.Reader)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
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

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
