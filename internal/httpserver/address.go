package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"infohub/internal/address"
)

func (h *handlers) lookupPostalCode(c *gin.Context) {
	addr, err := h.deps.Address.Resolve(c.Request.Context(), c.Param("cep"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, addr)
}

func (h *handlers) getAddress(c *gin.Context) {
	addr, err := address.Load(c.Request.Context(), sessionFrom(c).Store)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, addr)
}

func (h *handlers) saveAddress(c *gin.Context) {
	var form address.Form
	if err := bind(c, &form); err != nil {
		respondError(c, err)
		return
	}
	addr, err := h.deps.Address.Save(c.Request.Context(), sessionFrom(c).Store, form)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, addr)
}

func (h *handlers) removeAddress(c *gin.Context) {
	if err := address.Remove(c.Request.Context(), sessionFrom(c).Store); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "address removed")
}
