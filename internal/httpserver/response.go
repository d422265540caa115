package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/service/cart"
)

// envelope mirrors the backend's {status, message, data} shape so the UI parses one format.
type envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, code int, data interface{}) {
	c.JSON(code, envelope{Status: true, Data: data})
}

func respondMessage(c *gin.Context, code int, msg string) {
	c.JSON(code, envelope{Status: true, Message: msg})
}

func respondError(c *gin.Context, err error) {
	code, msg := errorStatus(err)
	c.AbortWithStatusJSON(code, envelope{Status: false, Message: msg})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "login required"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable, try again"
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		// the backend refused on purpose; its message is meant for the user
		return http.StatusUnprocessableEntity, apiErr.Message
	}
	return http.StatusInternalServerError, "internal error"
}

type productView struct {
	domain.Product
	DiscountPercent int  `json:"discountPercent,omitempty"`
	Favorite        bool `json:"favorite"`
}

// discountPercent is the whole-percent markdown from oldPrice to price.
func discountPercent(p domain.Product) int {
	if p.OldPrice == nil || !p.OldPrice.GreaterThan(p.Price) || p.OldPrice.IsZero() {
		return 0
	}
	off := p.OldPrice.Sub(p.Price).Div(*p.OldPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

func toProductViews(products []domain.Product, isFavorite func(int64) bool) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{Product: p, DiscountPercent: discountPercent(p), Favorite: isFavorite(p.ID)})
	}
	return out
}

type cartLineView struct {
	Product  domain.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items      []cartLineView  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"totalItems"`
	IsEmpty    bool            `json:"isEmpty"`
}

func toCartView(s cart.Summary) cartView {
	items := make([]cartLineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, cartLineView{Product: l.Product, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	return cartView{Items: items, Total: s.Total, TotalItems: s.TotalItems, IsEmpty: s.IsEmpty}
}
