package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged and surfaced as a bare 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, utils.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed"})
	case errors.Is(err, utils.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, utils.ErrorAttemptsExhausted):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "maximum verification attempts exceeded; this case is under admin review",
		})
	case errors.Is(err, models.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	default:
		config.LogError(config.GetLogger(), "server", "respondError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
