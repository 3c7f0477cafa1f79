package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/accounts"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/utils"
)

type AuthHandler struct {
	accounts *accounts.Service
	tokens   *auth.Tokens
}

func NewAuthHandler(a *accounts.Service, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{accounts: a, tokens: tokens}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(*user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogInfo("User logged in", map[string]interface{}{"user_id": user.ID})
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
