package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
)

// Recovery turns a handler panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic request_id=%s path=%s err=%v\n%s", c.GetString(RequestIDKey), c.Request.URL.Path, rec, debug.Stack())
				common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "internal error")
			}
		}()
		c.Next()
	}
}
