// Package module wires the collections API using modkit
package module

import (
	stdhttp "net/http"

	"tidepool/internal/modkit"
	"tidepool/internal/modkit/httpkit"
	str "tidepool/internal/platform/strings"
	colhttp "tidepool/internal/services/api/collections/http"
)

// Ports exposed and consumed by the collections module
type Ports = colhttp.Ports

// Module implements the collections API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(stdhttp.Handler) stdhttp.Handler
	ports     Ports
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the collections module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("collections"), modkit.WithPrefix("/collections")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok {
		panic("collections module requires collections ports via modkit.WithPorts")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		ports:     ports,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		colhttp.Register(r, m.ports)
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

// Ports returns the module port set
func (m *Module) Ports() any { return m.ports }
