package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultCSP = "default-src 'none'; frame-ancestors 'none'"
	// Swagger UI page needs CDN assets + inline bootstrap script/style.
	swaggerCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
	// uploaded images are user content; never let them run as a document
	mediaCSP = "default-src 'none'; img-src 'self'; sandbox"
)

// SecurityHeaders sets hardening headers. Paths under mediaPrefix are served
// as sandboxed, cacheable files.
func SecurityHeaders(mediaPrefix string) gin.HandlerFunc {
	mediaPrefix = strings.TrimRight(mediaPrefix, "/")

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")

		switch {
		case strings.HasPrefix(path, "/docs"):
			c.Header("Content-Security-Policy", swaggerCSP)
		case mediaPrefix != "" && strings.HasPrefix(path, mediaPrefix+"/"):
			c.Header("Content-Security-Policy", mediaCSP)
			// keys are random per upload, so the bytes behind a URL never change
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
		default:
			c.Header("Content-Security-Policy", defaultCSP)
		}

		c.Next()
	}
}
