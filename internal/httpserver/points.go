package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"infohub/internal/domain"
	"infohub/internal/service/points"
)

const defaultRankingLimit = 10

func (h *handlers) pointsDashboard(c *gin.Context) {
	token, ok := h.requireToken(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.deps.Points.Dashboard(c.Request.Context(), token, queryInt(c, "limite", defaultRankingLimit)))
}

func (h *handlers) pointsBalance(c *gin.Context) {
	token, ok := h.requireToken(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.deps.Points.Balance(c.Request.Context(), token))
}

func (h *handlers) pointsHistory(c *gin.Context) {
	token, ok := h.requireToken(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.deps.Points.History(c.Request.Context(), token))
}

func (h *handlers) pointsSummary(c *gin.Context) {
	token, ok := h.requireToken(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.deps.Points.Summary(c.Request.Context(), token))
}

func (h *handlers) pointsRanking(c *gin.Context) {
	respond(c, http.StatusOK, h.deps.Points.Ranking(c.Request.Context(), queryInt(c, "limite", defaultRankingLimit)))
}

// pointsTier is the pure tier computation, for screens that already know the balance.
func (h *handlers) pointsTier(c *gin.Context) {
	n, err := strconv.Atoi(c.Query("pontos"))
	if err != nil {
		respondError(c, fmt.Errorf("pontos %q: %w", c.Query("pontos"), domain.ErrInvalidFormat))
		return
	}
	respond(c, http.StatusOK, gin.H{
		"tier":     points.TierFor(n),
		"progress": points.Progress(n),
		"toNext":   points.PointsToNext(n),
	})
}
