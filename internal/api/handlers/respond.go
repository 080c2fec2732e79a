package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func errorResponse(c *gin.Context, statusCode int, message string, err error) {
	evt := log.Warn()
	if statusCode >= 500 {
		evt = log.Error()
	}
	evt.Err(err).Str("path", c.FullPath()).Int("status", statusCode).Msg(message)

	if err != nil && statusCode < 500 {
		message = message + ": " + err.Error()
	}
	c.JSON(statusCode, gin.H{"error": message})
}
