package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"research-cms-server/internal/services"
	"research-cms-server/internal/session"
	"research-cms-server/internal/utils"
)

type MeHandler struct {
	auth  *services.AuthService
	codec *session.Codec
}

func NewMeHandler(auth *services.AuthService, codec *session.Codec) *MeHandler {
	return &MeHandler{auth: auth, codec: codec}
}

// GetMe returns the profile of the current session's user. A missing
// or garbled cookie is 401; a session whose user row has since
// vanished is 404.
func (h *MeHandler) GetMe(c *gin.Context) {
	desc, err := h.codec.FromRequest(c)
	if err != nil {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid session", nil))
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), desc)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Profile())
}
