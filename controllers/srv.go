// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"verivault/analysis"
	"verivault/app"
	"verivault/config"
	"verivault/db"
	"verivault/render"
	"verivault/session"
	"verivault/signing"
	"verivault/submission"
	"verivault/uploads"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Store    db.Store
	Sessions session.Store
	Verifier *signing.Verifier
	Pipeline *submission.Pipeline
	Analyzer analysis.Analyzer
	Uploads  *uploads.Store
	Cfg      config.Config
	Log      *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Store:    a.Store,
		Sessions: a.Sessions,
		Verifier: a.Verifier,
		Pipeline: a.Pipeline,
		Analyzer: a.Analyzer,
		Uploads:  a.Uploads,
		Cfg:      a.Config,
		Log:      a.Log,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie
// maxAge < 0 删除 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	age := int(maxAge / time.Second)
	if maxAge < 0 {
		age = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.Cfg.ClientURL, "https://"),
		MaxAge:   age,
	})
}

// 登录成功：创建会话 + 记录登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID uint, ip, ua string) (string, error) {
	if err := s.Store.TouchUserLogin(ctx, userID, ip, ua); err != nil {
		s.Log.Warn("touch user login", "user_id", userID, "error", err) // 不阻塞
	}
	id := uuid.NewString()
	if err := s.Sessions.Create(ctx, id, userID); err != nil {
		return "", err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return id, nil
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, app.H{"success": false, "message": msg})
}

// respondError maps a domain error onto a status code. what names the
// resource for 404/409 messages.
func (s *Srv) respondError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, signing.ErrMissingFields), errors.Is(err, submission.ErrMissingField):
		fail(c, http.StatusBadRequest, "Required fields missing")
	case errors.Is(err, submission.ErrMalformedField):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, signing.ErrInvalidPINFormat):
		fail(c, http.StatusBadRequest, "PIN must be exactly 4 digits")
	case errors.Is(err, render.ErrInvalidReportType):
		fail(c, http.StatusBadRequest, "Invalid report type")
	case errors.Is(err, signing.ErrMalformedWatermark):
		fail(c, http.StatusBadRequest, "Malformed watermark")
	case errors.Is(err, uploads.ErrTooManyFiles),
		errors.Is(err, uploads.ErrFileTooLarge),
		errors.Is(err, uploads.ErrUnsupportedType):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, analysis.ErrEmptyInput), errors.Is(err, analysis.ErrUnreadableTable):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, signing.ErrInvalidPIN):
		fail(c, http.StatusUnauthorized, "Invalid PIN")
	case errors.Is(err, signing.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, db.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, db.ErrDuplicate):
		fail(c, http.StatusConflict, what+" already exists")
	case errors.Is(err, db.ErrAlreadyCheckedOut),
		errors.Is(err, db.ErrAlreadyPickedUp),
		errors.Is(err, db.ErrInactive):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, analysis.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, "Analysis service not configured")
	case errors.Is(err, analysis.ErrEmptyResponse):
		fail(c, http.StatusBadGateway, err.Error())
	default:
		s.Log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		body := app.H{"success": false, "message": "Internal server error"}
		if s.Cfg.IsDevelopment() {
			body["error"] = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(n), true
}

// limit/offset 查询参数，非法值交给 db.Page 收敛
func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return db.Page(limit, offset)
}

func actor(c *gin.Context) string {
	if u, ok := app.CurrentUser(c); ok {
		return u.Username
	}
	return ""
}
