package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Desarso/tripagent/sessions"
	"github.com/Desarso/tripagent/stores"
	"github.com/Desarso/tripagent/workspace"
)

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	var agentErr *sessions.AgentError
	switch {
	case errors.Is(err, stores.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, stores.ErrUserNotFound), errors.Is(err, workspace.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, stores.ErrWrongPassword), errors.Is(err, workspace.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &agentErr):
		if agentErr.Fatal {
			return http.StatusBadGateway
		}
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
