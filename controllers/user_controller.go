package controllers

import (
	"net/http"

	"verivault/app"
	"verivault/signing"

	"github.com/gin-gonic/gin"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=&limit=&offset=
func (uc *UserController) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)
	res, err := uc.Store.ListUsers(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		uc.respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success": true,
		"total":   res.Total,
		"users":   res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := uc.Store.FindUserByID(c.Request.Context(), id)
	if err != nil {
		uc.respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "user": user})
}

type changePINRequest struct {
	CurrentPIN string `json:"currentPin"`
	NewPIN     string `json:"newPin"`
}

// PUT /api/users/:id/pin
// 本人修改需提供当前 PIN；管理员可直接重置他人 PIN
func (uc *UserController) ChangePIN(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	me, _ := app.CurrentUser(c)
	self := me.ID == id
	if !self && !me.IsAdmin() {
		fail(c, http.StatusForbidden, "Admin access required")
		return
	}

	var in changePINRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.NewPIN == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	if err := signing.ValidatePINFormat(in.NewPIN); err != nil {
		uc.respondError(c, err, "User")
		return
	}

	ctx := c.Request.Context()
	if self {
		if in.CurrentPIN == "" {
			fail(c, http.StatusBadRequest, "Required fields missing")
			return
		}
		if _, err := uc.Verifier.Verify(ctx, signing.Request{UserID: id, PIN: in.CurrentPIN, ClientIP: c.ClientIP()}); err != nil {
			uc.respondError(c, err, "User")
			return
		}
	}
	if err := uc.Store.UpdateUserPin(ctx, id, signing.HashPIN(in.NewPIN)); err != nil {
		uc.respondError(c, err, "User")
		return
	}
	// 管理员重置他人 PIN 后强制其重新登录
	if !self {
		_ = uc.Sessions.RevokeAllForUser(ctx, id)
	}
	uc.Log.Info("pin changed", "user_id", id, "by", me.Username)
	c.JSON(http.StatusOK, app.H{"success": true, "message": "PIN updated"})
}
