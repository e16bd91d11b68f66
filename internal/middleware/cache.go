package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses cacheable for maxAge by browsers and, when sharedMaxAge is set, for
// sharedMaxAge by CDNs. Handlers must answer with response.Cached to keep the header.
func CacheControl(maxAge, sharedMaxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	if sharedMaxAge > 0 {
		value += fmt.Sprintf(", s-maxage=%d", int(sharedMaxAge.Seconds()))
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
