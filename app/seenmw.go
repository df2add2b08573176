package app

import (
	"fmt"
	"time"

	"verivault/db"
	"verivault/session"

	"github.com/gin-gonic/gin"
)

func TouchLastSeen(users db.UserStore, throttle session.Throttle, every time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetUint(ctxUserID)
		if uid == 0 {
			c.Next()
			return
		}
		if throttle.Allow(c.Request.Context(), fmt.Sprintf("lastseen:%d", uid), every) {
			_ = users.TouchUserSeen(c.Request.Context(), uid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
