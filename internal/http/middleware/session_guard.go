package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"research-cms-server/internal/session"
	"research-cms-server/internal/utils"
)

// SessionGuard gates the admin dashboard pages. Requests under any of
// the configured path prefixes are redirected to the login page unless
// they carry a decodable admin session cookie. The check is a local
// decode only; the user row is never consulted, so a session stays
// good for its full cookie lifetime even if the user is deleted or
// deactivated in the meantime.
func SessionGuard(codec *session.Codec, prefixes []string, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !guardedPath(path, prefixes, loginPath) {
			c.Next()
			return
		}

		desc, err := codec.FromRequest(c)
		if err != nil || !desc.Role.CanManageContent() {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

func guardedPath(path string, prefixes []string, loginPath string) bool {
	if path == loginPath {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequireAdmin is the same gate for the JSON admin API: 401 without a
// valid session, 403 for a non-admin one. On success the caller
// identity is stashed in the gin context for handlers.
func RequireAdmin(codec *session.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		desc, err := codec.FromRequest(c)
		if err != nil {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid session", nil))
			c.Abort()
			return
		}

		if !desc.Role.CanManageContent() {
			utils.RespondError(c, utils.NewAppError(http.StatusForbidden, "FORBIDDEN", "admin access required", nil))
			c.Abort()
			return
		}

		c.Set("user_id", desc.UserID)
		c.Set("role", desc.Role.String())
		c.Next()
	}
}
