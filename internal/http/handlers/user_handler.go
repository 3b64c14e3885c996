package handlers

import (
	"github.com/gin-gonic/gin"
	"research-cms-server/internal/models"
	"research-cms-server/internal/services"
	"research-cms-server/internal/utils"
)

type UserHandler struct {
	auth *services.AuthService
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	role := models.RoleViewer
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			utils.RespondValidationError(c, err.Error())
			return
		}
		role = parsed
	}

	user, err := h.auth.CreateUser(c.Request.Context(), req.Email, req.Name, req.Password, role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondCreated(c, user.Profile())
}
