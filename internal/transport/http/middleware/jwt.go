package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hr-assistant/internal/pkg/jwtutil"
	"hr-assistant/internal/transport/http/response"
)

const (
	ContextUserIDKey      = "user_id"
	ContextEmailKey       = "email"
	ContextAuthSessionKey = "auth_session_id"
)

// SessionChecker reports whether the auth session behind a token is still
// authenticated; logout removes it, revoking the token early.
type SessionChecker interface {
	IsAuthenticated(sessionID string) bool
}

func AuthJWT(secret string, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if sessions != nil && !sessions.IsAuthenticated(claims.SessionID) {
			response.Error(c, 401, response.CodeUnauthorized, "session is no longer authenticated")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextAuthSessionKey, claims.SessionID)
		c.Next()
	}
}
