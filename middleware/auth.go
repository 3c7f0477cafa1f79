package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/utils"
)

const sessionKey = "session"

// TokenParser turns a bearer token into a session.
type TokenParser interface {
	Parse(raw string) (auth.Session, error)
}

// SessionRefresher reloads the user behind a session. It returns
// models.ErrForbidden for banned users and models.ErrUnauthorized for
// unknown ones.
type SessionRefresher interface {
	Refresh(ctx context.Context, s auth.Session) (auth.Session, error)
}

// RequireSession rejects requests without a valid bearer token, re-checks
// the user and stores the session on the context.
func RequireSession(tokens TokenParser, users SessionRefresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		s, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			utils.LogWarn("Rejected token", map[string]interface{}{
				"error": err.Error(),
				"path":  c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		s, err = users.Refresh(c.Request.Context(), s)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
			return
		case errors.Is(err, models.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}
