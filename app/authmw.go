package app

import (
	"net/http"
	"strings"

	"verivault/db"
	"verivault/models"
	"verivault/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

// context keys set by AuthRequired
const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
	ctxUser     = "user"
	ctxToken    = "sessionToken"
)

// SessionToken prefers the Authorization header over the cookie.
func SessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

func AuthRequired(sessions session.Store, users db.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := SessionToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "message": "Authentication required"})
			return
		}
		as, err := sessions.Get(c.Request.Context(), tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "message": "Invalid or expired session"})
			return
		}

		// 确认用户仍存在
		u, err := users.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = sessions.Delete(c.Request.Context(), tok)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "message": "Invalid or expired session"})
			return
		}
		c.Set(ctxUserID, u.ID)
		c.Set(ctxUsername, u.Username)
		c.Set(ctxRole, u.Role)
		c.Set(ctxUser, u)
		c.Set(ctxToken, tok)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "message": "Authentication required"})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"success": false, "message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by AuthRequired.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

func CurrentToken(c *gin.Context) string { return c.GetString(ctxToken) }
