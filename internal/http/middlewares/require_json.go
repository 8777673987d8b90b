package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireContentType rejects POST/PUT/PATCH bodies whose media type is not
// one of allowed. Parameters such as charset or boundary are ignored.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	want := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		want[strings.ToLower(t)] = struct{}{}
	}

	message := "Content-Type must be " + strings.Join(allowed, " or ")

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil {
				abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", message)
				return
			}
			if _, ok := want[strings.ToLower(mediaType)]; !ok {
				abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", message)
				return
			}
		}
		c.Next()
	}
}

func RequireJSON() gin.HandlerFunc {
	return RequireContentType("application/json")
}

// RequireMultipart guards the image upload route.
func RequireMultipart() gin.HandlerFunc {
	return RequireContentType("multipart/form-data")
}
