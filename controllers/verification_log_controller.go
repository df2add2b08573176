package controllers

import (
	"net/http"
	"strconv"

	"verivault/app"

	"github.com/gin-gonic/gin"
)

// VerificationLogController 只读审计：每一次 PIN 校验
type VerificationLogController struct{ *Srv }

func NewVerificationLogController(s *Srv) *VerificationLogController {
	return &VerificationLogController{Srv: s}
}

// GET /api/auth/verifications?userId=&limit=&offset=
func (vc *VerificationLogController) List(c *gin.Context) {
	var userID uint
	if v := c.Query("userId"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid userId")
			return
		}
		userID = uint(n)
	}
	limit, offset := pageParams(c)
	items, total, err := vc.Store.ListVerifications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		vc.respondError(c, err, "Verification")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "items": items})
}
