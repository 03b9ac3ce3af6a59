package router

import "github.com/gin-gonic/gin"

// Module is a feature area that owns a set of routes.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry mounts feature modules under a shared base path. Every route in
// this service lives under /api; the registry owns that convention so modules
// only declare paths relative to it.
type Registry struct {
	api  *gin.RouterGroup
	mods []Module
}

func NewRegistry(engine *gin.Engine, basePath string) *Registry {
	return &Registry{api: engine.Group(basePath)}
}

func (r *Registry) Add(mods ...Module) {
	r.mods = append(r.mods, mods...)
}

// RegisterAll mounts every module on the base group. Called once at startup,
// after InitModules has assembled the module list.
func (r *Registry) RegisterAll() {
	for _, m := range r.mods {
		m.Register(r.api)
	}
}
