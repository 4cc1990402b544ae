package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/openedx-sample-plugin/internal/middleware"
	"github.com/noah-isme/openedx-sample-plugin/internal/models"
)

// claimsFromContext returns nil for anonymous requests; services treat
// a nil actor as unauthenticated.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
