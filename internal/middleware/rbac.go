package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

// RequireStaff lets only global staff through. It must run after JWT.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Abort(c, appErrors.ErrNotAuthenticated)
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok || !claims.IsStaff {
			response.Abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
