package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/accounts"
)

type UserHandler struct {
	accounts *accounts.Service
}

func NewUserHandler(a *accounts.Service) *UserHandler {
	return &UserHandler{accounts: a}
}

// GetProfile returns a user with library totals. Users may read their own
// profile; admins may read any.
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	s := sessionOf(c)
	if !s.IsAdmin() && s.UserID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

func (h *UserHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *UserHandler) setBanned(c *gin.Context, banned bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.accounts.SetBanned(c.Request.Context(), sessionOf(c), id, banned)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "User unbanned"
	if banned {
		message = "User banned"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "user": user})
}
