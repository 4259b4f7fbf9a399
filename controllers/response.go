package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/middleware"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	log "github.com/sirupsen/logrus"
)

// respondError writes the error envelope for any service error. Store faults
// are logged with their cause and reported with a generic message.
func respondError(c *gin.Context, err error) {
	svcErr := services.AsError(err)
	message := svcErr.Message
	if svcErr.Kind == services.KindStore {
		log.WithError(svcErr.Err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error(svcErr.Message)
		message = "An internal error occurred. Please try again."
	}

	c.JSON(svcErr.Kind.HTTPStatus(), gin.H{
		"success": false,
		"error": gin.H{
			"code":    svcErr.Code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, message string, err error) {
	body := gin.H{
		"code":    "VALIDATION_ERROR",
		"message": message,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   body,
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// currentActor returns the caller, writing a 401 when no session is attached
func currentActor(c *gin.Context) (services.Actor, bool) {
	session, err := middleware.GetSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return services.Actor{}, false
	}
	return session.Actor(), true
}

// parseID parses a positive numeric identifier, writing a 400 on failure
func parseID(c *gin.Context, raw, name string) (uint, bool) {
	if raw == "" {
		respondValidation(c, name+" is required", nil)
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondValidation(c, name+" must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}
