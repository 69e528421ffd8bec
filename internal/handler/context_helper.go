package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unidesk/registrar-api/internal/middleware"
	"github.com/unidesk/registrar-api/internal/models"
)

// claimsFromContext reads the claims the JWT middleware stored. A nil
// result means the route was reached without authentication.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.JWTClaims)
	return claims
}
