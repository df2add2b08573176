package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"verivault/config"
	"verivault/db"
	"verivault/models"
	"verivault/session"
	"verivault/signing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { gin.SetMode(gin.TestMode) }

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("dropped")
	l.Warn("kept", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "v", line["k"])

	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger, false))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body, "error")

	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), `"msg":"http.request"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestAuthRequired(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	require.NoError(t, SeedUsers(ctx, store, slog.New(slog.NewTextHandler(io.Discard, nil))))
	sessions := session.NewMemoryStore(time.Hour)
	require.NoError(t, sessions.Create(ctx, "officer-token", 2))
	require.NoError(t, sessions.Create(ctx, "ghost-token", 42))

	r := gin.New()
	r.GET("/me", AuthRequired(sessions, store), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, H{"username": u.Username})
	})
	r.GET("/admin", AuthRequired(sessions, store), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	get := func(path string, mod func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if mod != nil {
			mod(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	bearer := func(tok string) func(*http.Request) {
		return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }
	}

	assert.Equal(t, http.StatusUnauthorized, get("/me", nil).Code)
	assert.Equal(t, http.StatusOK, get("/me", bearer("officer-token")).Code)
	assert.Equal(t, http.StatusOK, get("/me", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: "officer-token"})
	}).Code)
	assert.Equal(t, http.StatusForbidden, get("/admin", bearer("officer-token")).Code)

	// unknown user: session is dropped
	assert.Equal(t, http.StatusUnauthorized, get("/me", bearer("ghost-token")).Code)
	_, err := sessions.Get(ctx, "ghost-token")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSeedUsersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, SeedUsers(ctx, store, log))
	require.NoError(t, store.UpdateUserPin(ctx, 1, signing.HashPIN("9999")))
	require.NoError(t, SeedUsers(ctx, store, log))

	admin, err := store.FindUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, signing.HashPIN("9999"), admin.PinHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	res, err := store.ListUsers(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
}
