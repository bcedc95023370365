package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

// respondError maps a service error onto its HTTP status and a stable JSON
// shape. Internal errors are logged but not leaked to the client.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)
	message := err.Error()

	if status >= 500 {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal server error"
		if code == "" {
			code = "INTERNAL"
		}
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(400, gin.H{
		"error": gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		},
	})
}
