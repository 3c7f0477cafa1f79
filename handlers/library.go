package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/library"
)

// LibraryHandler exposes the ownership ledger. Every route runs behind
// RequireSession.
type LibraryHandler struct {
	engine    *library.Engine
	projector *library.Projector
}

func NewLibraryHandler(e *library.Engine, p *library.Projector) *LibraryHandler {
	return &LibraryHandler{engine: e, projector: p}
}

func (h *LibraryHandler) GetLibrary(c *gin.Context) {
	var q library.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}

	lib, err := h.projector.GetLibrary(c.Request.Context(), sessionOf(c).UserID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (h *LibraryHandler) LoanedOut(c *gin.Context) {
	s := sessionOf(c)
	items, err := h.projector.LoanedOut(c.Request.Context(), s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": s.UserID, "games": items})
}

func (h *LibraryHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.engine.Get(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LibraryHandler) Add(c *gin.Context) {
	var cmd library.AddToLibrary
	if !bindJSON(c, &cmd) {
		return
	}
	rec, err := h.engine.AddToLibrary(c.Request.Context(), sessionOf(c), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *LibraryHandler) Loan(c *gin.Context) {
	var cmd library.Loan
	if !bindCommand(c, &cmd, &cmd.OwnershipID) {
		return
	}
	rec, err := h.engine.Loan(c.Request.Context(), sessionOf(c), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LibraryHandler) Return(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.engine.ReturnLoan(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LibraryHandler) UpdatePlaytime(c *gin.Context) {
	var cmd library.UpdatePlaytime
	if !bindCommand(c, &cmd, &cmd.OwnershipID) {
		return
	}
	rec, err := h.engine.UpdatePlaytime(c.Request.Context(), sessionOf(c), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LibraryHandler) SetStatus(c *gin.Context) {
	var cmd library.SetStatus
	if !bindCommand(c, &cmd, &cmd.OwnershipID) {
		return
	}
	rec, err := h.engine.SetStatus(c.Request.Context(), sessionOf(c), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LibraryHandler) Remove(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.engine.RemoveFromLibrary(c.Request.Context(), sessionOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game removed from library"})
}

// bindCommand reads the ownership id from the path and the rest of the
// command from the body.
func bindCommand(c *gin.Context, cmd interface{}, ownershipID *uint) bool {
	id, ok := idParam(c, "id")
	if !ok {
		return false
	}
	if !bindJSON(c, cmd) {
		return false
	}
	*ownershipID = id
	return true
}
