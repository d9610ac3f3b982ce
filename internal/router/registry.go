package router

import "github.com/gin-gonic/gin"

// Module mounts one feature's routes under the /api group.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and mounts them under /api. Middleware added
// with Use applies to the /api group only, so /healthz stays unthrottled.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	names       map[string]struct{}
	registered  bool
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api"), names: map[string]struct{}{}}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add queues a module. A second module with the same name is ignored.
func (r *Registry) Add(mod Module) {
	if _, ok := r.names[mod.Name()]; ok {
		return
	}
	r.names[mod.Name()] = struct{}{}
	r.modules = append(r.modules, mod)
}

// Modules lists queued module names in mount order.
func (r *Registry) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m.Name())
	}
	return out
}

// RegisterAll is idempotent; gin panics on duplicate routes.
func (r *Registry) RegisterAll() {
	if r.registered {
		return
	}
	r.registered = true
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
