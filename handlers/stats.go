package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/stats"
)

type StatsHandler struct {
	stats *stats.Service
}

func NewStatsHandler(s *stats.Service) *StatsHandler {
	return &StatsHandler{stats: s}
}

// GetDashboardStats is admin only.
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	if !sessionOf(c).IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admins only"})
		return
	}

	d, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
