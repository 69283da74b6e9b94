package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mahjongserver/common/log"
)

// corsMiddleware mirrors the teacher's permissive CORS policy: this
// surface has no cookie-based session to protect, only the signed
// ticket POST /games hands back.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		log.Info("httpapi: %s %s -> %d in %v", method, path, c.Writer.Status(), time.Since(start))
	}
}

func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("httpapi: panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse("internal server error"))
	})
}

// bodySizeLimit caps the request body gin will read, the same guard
// http.MaxBytesReader gives a plain net/http handler: past max, reading
// the body fails instead of the handler allocating an unbounded amount
// of memory for it.
func bodySizeLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
