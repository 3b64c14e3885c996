package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"research-cms-server/internal/services"
	"research-cms-server/internal/session"
	"research-cms-server/internal/utils"
)

type AuthHandler struct {
	auth  *services.AuthService
	codec *session.Codec
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func NewAuthHandler(auth *services.AuthService, codec *session.Codec) *AuthHandler {
	return &AuthHandler{auth: auth, codec: codec}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	user, cookieValue, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.codec.SetCookie(c, cookieValue)
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// Logout clears the session cookie unconditionally. There is no server
// side session state, so this always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.codec.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		utils.RespondError(c, err)
		return
	}

	// Same body whether or not the account exists.
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
