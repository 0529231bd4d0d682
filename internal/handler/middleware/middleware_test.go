package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(issuer *session.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(SessionMiddleware(issuer, log))
	r.GET("/public", func(c *gin.Context) {
		fromCtx := session.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"signedIn": Session(c).SignedIn(), "ctx": fromCtx.SignedIn()})
	})
	r.GET("/private", RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, Session(c).Name)
	})
	return r
}

func do(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMiddleware(t *testing.T) {
	issuer := session.NewIssuer("secret", time.Hour)
	r := newRouter(issuer)

	token, err := issuer.Issue(session.New(uuid.New(), "alice"))
	require.NoError(t, err)

	t.Run("anonymous_public", func(t *testing.T) {
		w := do(r, "/public", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"signedIn":false,"ctx":false}`, w.Body.String())
	})

	t.Run("anonymous_private", func(t *testing.T) {
		w := do(r, "/private", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"please sign in"}`, w.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		w := do(r, "/private", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", w.Body.String())
	})

	t.Run("query_token", func(t *testing.T) {
		w := do(r, "/public?token="+token, "")
		assert.JSONEq(t, `{"signedIn":true,"ctx":true}`, w.Body.String())
	})

	t.Run("bad_format", func(t *testing.T) {
		w := do(r, "/public", "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad_token", func(t *testing.T) {
		w := do(r, "/public", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid token"}`, w.Body.String())
	})
}
