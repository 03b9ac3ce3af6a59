package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxRealIP is the context key the rate limiter reads the client IP from.
const ctxRealIP = "real_ip"

// Proxy headers consulted in order: Cloudflare's header wins when present,
// then the left-most X-Forwarded-For hop.
var proxyIPHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For"}

// RealIP resolves the originating client IP once per request and stores it in
// the context for rate-limit keying.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRealIP, resolveClientIP(c))
		c.Next()
	}
}

func resolveClientIP(c *gin.Context) string {
	for _, h := range proxyIPHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		first := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
