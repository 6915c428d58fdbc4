package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-site-api/internal/middleware"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/response"
)

// intParam reads an integer path parameter, writing a validation error when it is not one.
func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be an integer", name)))
		return 0, false
	}
	return value, true
}

func boolQuery(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.Query(name))
	return err == nil && value
}

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
