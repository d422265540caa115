package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"infohub/internal/domain"
	"infohub/internal/service/cart"
)

type addCartItemRequest struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *domain.Product `json:"product"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type cartActionsRequest struct {
	Actions []cart.UpdateAction `json:"actions" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	respond(c, http.StatusOK, toCartView(sessionFrom(c).Cart.Summary()))
}

func (h *handlers) clearCart(c *gin.Context) {
	m := sessionFrom(c).Cart
	m.Clear(c.Request.Context())
	respond(c, http.StatusOK, toCartView(m.Summary()))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	var p domain.Product
	switch {
	case req.Product != nil && req.Product.ID > 0:
		p = *req.Product
	case req.ProductID > 0:
		var err error
		if p, err = h.deps.Catalog.Product(c.Request.Context(), req.ProductID); err != nil {
			respondError(c, err)
			return
		}
	default:
		respondError(c, fmt.Errorf("productId required: %w", domain.ErrInvalidFormat))
		return
	}

	m := sessionFrom(c).Cart
	m.Add(c.Request.Context(), p, req.Quantity)
	respond(c, http.StatusOK, toCartView(m.Summary()))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateCartItemRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	m := sessionFrom(c).Cart
	if err := m.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toCartView(m.Summary()))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	m := sessionFrom(c).Cart
	m.Remove(c.Request.Context(), id)
	respond(c, http.StatusOK, toCartView(m.Summary()))
}

func (h *handlers) applyCartActions(c *gin.Context) {
	var req cartActionsRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	m := sessionFrom(c).Cart
	if err := m.Apply(c.Request.Context(), req.Actions); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toCartView(m.Summary()))
}
