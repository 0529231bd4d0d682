package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	tokenQuery          = "token"

	SessionCtx = "session"
)

// SessionMiddleware resolves the caller's session from a Bearer token (or a
// token query parameter, for websocket clients). Requests without a token
// continue as anonymous; a token that is present but invalid is rejected.
func SessionMiddleware(issuer *session.Issuer, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			log.Warn("session middleware: invalid auth header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid auth header format",
			})
			return
		}

		sess := session.Anonymous
		if tokenString != "" {
			parsed, err := issuer.Parse(tokenString)
			if err != nil {
				log.Warn("session middleware: failed to parse token", slog.Any("error", err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid token",
				})
				return
			}
			sess = parsed
		}

		c.Set(SessionCtx, sess)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireSession stops anonymous callers with a "please sign in" notice.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Session(c).SignedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": errs.ErrNotSignedIn.Error(),
			})
			return
		}
		c.Next()
	}
}

func Session(c *gin.Context) session.Session {
	if raw, ok := c.Get(SessionCtx); ok {
		if sess, ok := raw.(session.Session); ok {
			return sess
		}
	}
	return session.Anonymous
}

// bearerToken returns "" with ok when no credentials were sent.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return c.Query(tokenQuery), true
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
		return "", false
	}

	return headerParts[1], true
}
