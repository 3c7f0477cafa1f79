package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/catalog"
	"github.com/theEricHoang/coal/models"
)

type GameHandler struct {
	catalog *catalog.Service
}

func NewGameHandler(c *catalog.Service) *GameHandler {
	return &GameHandler{catalog: c}
}

func (h *GameHandler) List(c *gin.Context) {
	var q catalog.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}

	games, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) Search(c *gin.Context) {
	var q struct {
		Title string `form:"q"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}

	games, err := h.catalog.Search(c.Request.Context(), q.Title, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "count": len(games)})
}

func (h *GameHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	game, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// Publish creates a catalog entry. Studios and admins only.
func (h *GameHandler) Publish(c *gin.Context) {
	var input models.PublishGameInput
	if !bindJSON(c, &input) {
		return
	}
	game, err := h.catalog.Publish(c.Request.Context(), sessionOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}
