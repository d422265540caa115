package httpserver

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"infohub/internal/domain"
)

type handlers struct {
	deps   Deps
	logger *log.Logger
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Param(name), domain.ErrInvalidFormat)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return def
	}
	return v
}

func bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("invalid body: %v: %w", err, domain.ErrInvalidFormat)
	}
	return nil
}

func (h *handlers) token(c *gin.Context) string {
	return h.deps.Sessions.Token(c.Request.Context(), sessionFrom(c))
}

// requireToken fails with 401 before any backend call when the session is signed out.
func (h *handlers) requireToken(c *gin.Context) (string, bool) {
	token := h.token(c)
	if token == "" {
		respondError(c, domain.ErrNotAuthenticated)
		return "", false
	}
	return token, true
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"senha" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.deps.Sessions.Login(c.Request.Context(), sessionFrom(c), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Sessions.Logout(c.Request.Context(), sessionFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "logged out")
}

func (h *handlers) me(c *gin.Context) {
	ctx := c.Request.Context()
	sess := sessionFrom(c)
	var (
		user domain.User
		err  error
	)
	if c.Query("refresh") == "true" {
		user, err = h.deps.Sessions.RefreshUser(ctx, sess)
	} else {
		user, err = h.deps.Sessions.User(ctx, sess)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *handlers) getEstablishment(c *gin.Context) {
	est, err := h.deps.Sessions.Establishment(c.Request.Context(), sessionFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, est)
}

func (h *handlers) setEstablishment(c *gin.Context) {
	var est domain.Establishment
	if err := bind(c, &est); err != nil {
		respondError(c, err)
		return
	}
	if err := h.deps.Sessions.SetEstablishment(c.Request.Context(), sessionFrom(c), est); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, est)
}
