package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"infohub/internal/domain"
)

func (h *handlers) listFavorites(c *gin.Context) {
	fav := sessionFrom(c).Favorites
	if c.Query("refresh") == "true" {
		if _, ok := h.requireToken(c); !ok {
			return
		}
		// a failed refresh still serves the local copy
		if err := fav.Load(c.Request.Context()); err != nil {
			h.logger.Printf("favorites: refresh error=%v", err)
		}
	}
	respond(c, http.StatusOK, fav.List())
}

func (h *handlers) favoriteStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	fav := sessionFrom(c).Favorites
	respond(c, http.StatusOK, gin.H{"id": id, "isFavorite": fav.IsFavorite(id), "state": fav.State(id).String()})
}

// product resolves the snapshot stored with a favorite, degrading to the bare id when the catalog misses it.
func (h *handlers) product(c *gin.Context, id int64) domain.Product {
	p, err := h.deps.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		h.logger.Printf("favorites: product snapshot id=%d error=%v", id, err)
		return domain.Product{ID: id}
	}
	return p
}

func (h *handlers) toggleFavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := h.requireToken(c); !ok {
		return
	}
	res, err := sessionFrom(c).Favorites.Toggle(c.Request.Context(), h.product(c, id))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *handlers) addFavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := h.requireToken(c); !ok {
		return
	}
	fav := sessionFrom(c).Favorites
	if !fav.IsFavorite(id) {
		if err := fav.Add(c.Request.Context(), h.product(c, id)); err != nil {
			respondError(c, err)
			return
		}
	}
	respond(c, http.StatusOK, gin.H{"id": id, "isFavorite": true})
}

func (h *handlers) removeFavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := sessionFrom(c).Favorites.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "isFavorite": false})
}

func (h *handlers) clearFavorites(c *gin.Context) {
	if err := sessionFrom(c).Favorites.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "favorites cleared")
}
