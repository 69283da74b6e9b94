package httpapi

import (
	"github.com/arl/statsviz"
	"github.com/gin-gonic/gin"

	"mahjongserver/common/log"
)

// mountStatsviz wires the runtime-visualization debug UI into engine at
// mountPath. statsviz.NewServer targets exactly this case: a router
// that isn't an http.ServeMux, handing back plain http.Handlers to wrap.
// A failure here is not fatal to the rest of the HTTP surface; this is
// a debug aid, not a request path any client depends on.
func mountStatsviz(engine *gin.Engine, mountPath string) {
	if mountPath == "" {
		return
	}
	srv, err := statsviz.NewServer()
	if err != nil {
		log.Error("httpapi: statsviz server: %v", err)
		return
	}
	group := engine.Group(mountPath)
	group.GET("/*filepath", gin.WrapH(srv.Index()))
	group.GET("/ws", gin.WrapH(srv.Ws()))
}
