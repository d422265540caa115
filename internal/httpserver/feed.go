package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createPostRequest struct {
	Content string `json:"conteudo"`
	Image   string `json:"imagem"`
}

type commentRequest struct {
	Content string `json:"conteudo"`
}

func (h *handlers) listPosts(c *gin.Context) {
	respond(c, http.StatusOK, h.deps.Feed.List(c.Request.Context(), h.token(c)))
}

func (h *handlers) createPost(c *gin.Context) {
	var req createPostRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.deps.Feed.Create(c.Request.Context(), h.token(c), req.Content, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, post)
}

func (h *handlers) likePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.deps.Feed.Like(c.Request.Context(), h.token(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *handlers) listComments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, h.deps.Feed.Comments(c.Request.Context(), id))
}

func (h *handlers) addComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	cm, err := h.deps.Feed.Comment(c.Request.Context(), h.token(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, cm)
}
