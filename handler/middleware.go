package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/token"
)

const userIDKey = "auth.user_id"

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's user id on the gin context.
func AuthRequired(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(c, apperr.New(apperr.KindUnauthorized, "MISSING_TOKEN", "missing bearer token"))
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(c, apperr.Wrap(apperr.KindUnauthorized, "BAD_TOKEN", err))
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// AuthOptional attaches the user id when a valid token is present but lets
// anonymous requests through.
func AuthOptional(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(userIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// currentUserID returns the authenticated user id, or nil for anonymous
// requests.
func currentUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(userIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
