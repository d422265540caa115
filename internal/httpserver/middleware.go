package httpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"infohub/internal/domain"
	"infohub/internal/service/session"
)

// sessionHeader carries the session id both ways. A missing or unknown id opens a fresh session.
const sessionHeader = "X-Session-ID"

type ctxKey string

const sessionCtxKey ctxKey = "session"

func sessionMiddleware(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := strings.TrimSpace(c.GetHeader(sessionHeader))

		var (
			sess *session.Session
			err  error
		)
		if id != "" {
			sess, err = sessions.Get(ctx, id)
		}
		if id == "" || errors.Is(err, domain.ErrNotFound) {
			sess, err = sessions.Open(ctx)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header(sessionHeader, sess.ID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, sessionCtxKey, sess))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	sess, _ := c.Request.Context().Value(sessionCtxKey).(*session.Session)
	return sess
}
