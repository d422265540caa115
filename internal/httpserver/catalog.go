package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"infohub/internal/backend"
)

func (h *handlers) listProducts(c *gin.Context) {
	q := backend.ProductQuery{
		Search: strings.TrimSpace(c.Query("busca")),
		OnSale: c.Query("promocao") == "true",
	}
	if raw := c.Query("categoria"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			q.CategoryID = id
		}
	}
	products := h.deps.Catalog.Products(c.Request.Context(), q)
	respond(c, http.StatusOK, toProductViews(products, sessionFrom(c).Favorites.IsFavorite))
}

func (h *handlers) listPromotions(c *gin.Context) {
	products := h.deps.Catalog.Promotions(c.Request.Context())
	respond(c, http.StatusOK, toProductViews(products, sessionFrom(c).Favorites.IsFavorite))
}

func (h *handlers) getProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.deps.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	fav := sessionFrom(c).Favorites
	respond(c, http.StatusOK, productView{Product: p, DiscountPercent: discountPercent(p), Favorite: fav.IsFavorite(p.ID)})
}

func (h *handlers) listCategories(c *gin.Context) {
	respond(c, http.StatusOK, h.deps.Catalog.Categories(c.Request.Context()))
}
