package router

import "github.com/gin-gonic/gin"

// Module mounts a set of routes on a group.
type Module interface{ Mount(*gin.RouterGroup) }

type ModuleFunc func(*gin.RouterGroup)

func (f ModuleFunc) Mount(g *gin.RouterGroup) { f(g) }

// mountAll mounts mods in order. Modules sharing a group must not register
// the same method and path.
func mountAll(g *gin.RouterGroup, mods ...Module) {
	for _, m := range mods {
		m.Mount(g)
	}
}
