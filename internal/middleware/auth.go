package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-viewer-go/pkg/response"
)

// Authorizer checks that a bearer token grants access to a viewer.
type Authorizer interface {
	Authorize(viewerID, token string) error
}

// ViewerAuth requires "Authorization: Bearer <token>" matching the :id path
// parameter. EventSource clients that cannot set headers may pass the token
// as ?token=.
func ViewerAuth(a Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.Unauthorized(c, "Missing viewer token")
			return
		}
		if err := a.Authorize(c.Param("id"), token); err != nil {
			response.Unauthorized(c, "Invalid viewer token")
			return
		}
		c.Next()
	}
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
