package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/middleware"
	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
)

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

func currentPrincipal(c *gin.Context) *service.Principal {
	value, ok := c.Get(middleware.ContextPrincipalKey)
	if !ok {
		return nil
	}
	principal, ok := value.(*service.Principal)
	if !ok {
		return nil
	}
	return principal
}
