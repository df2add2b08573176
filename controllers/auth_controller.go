package controllers

import (
	"errors"
	"net/http"
	"strings"

	"verivault/app"
	"verivault/db"
	"verivault/signing"
	"verivault/submission"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Username) == "" || in.Password == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	ctx := c.Request.Context()
	u, err := ac.Store.FindUserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, db.ErrNotFound) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		ac.respondError(c, err, "User")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := ac.issueSession(ctx, c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		ac.respondError(c, err, "Session")
		return
	}
	ac.Log.Info("login", "user_id", u.ID, "username", u.Username)
	c.JSON(http.StatusOK, app.H{"success": true, "user": u, "token": token})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if tok := app.CurrentToken(c); tok != "" {
		_ = ac.Sessions.Delete(c.Request.Context(), tok)
	}
	ac.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"success": true})
}

// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	u, _ := app.CurrentUser(c)
	c.JSON(http.StatusOK, app.H{"success": true, "user": u})
}

// POST /api/auth/verify-pin {userId, pin}
func (ac *AuthController) VerifyPIN(c *gin.Context) {
	var in submission.VerificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	v, err := ac.Verifier.Verify(c.Request.Context(), signing.Request{
		UserID:   in.UserID,
		PIN:      in.PIN,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		ac.respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "verificationData": v})
}
