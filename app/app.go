package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"verivault/analysis"
	"verivault/config"
	"verivault/db"
	"verivault/idgen"
	"verivault/render"
	"verivault/session"
	"verivault/signing"
	"verivault/submission"
	"verivault/uploads"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	Config config.Config
	Log    *slog.Logger

	Store    db.Store
	DB       *gorm.DB
	RDB      *redis.Client
	Sessions session.Store
	Throttle session.Throttle
	IDs      *idgen.Generator
	Uploads  *uploads.Store
	Verifier *signing.Verifier
	Pipeline *submission.Pipeline
	// nil when no API key is configured
	Analyzer analysis.Analyzer
}

// New wires the backends named by cfg: Postgres when DATABASE_URL is set,
// redis when REDIS_ADDR is set, in-process otherwise.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		a.DB = conn
		a.Store = db.NewRepo(conn)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		a.Store = db.NewMemStore()
	}

	var counter idgen.Counter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: 0})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.RDB = rdb
		a.Sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		a.Throttle = session.NewRedisThrottle(rdb)
		counter = idgen.NewRedisCounter(rdb, "vv:seq:report")
	} else {
		a.Sessions = session.NewMemoryStore(cfg.SessionTTL)
		a.Throttle = session.NewMemoryThrottle()
	}
	a.IDs = idgen.New(counter)

	up, err := uploads.New(cfg.Upload)
	if err != nil {
		return nil, err
	}
	a.Uploads = up
	a.Verifier = signing.NewVerifier(a.Store, a.Store, log)
	a.Pipeline = submission.New(a.Store, a.Verifier, up, a.IDs, render.FPDF{Creator: "VeriVault"}, cfg.Report, log)

	claude, err := analysis.NewClaude(cfg.LLM, log)
	switch {
	case errors.Is(err, analysis.ErrNotConfigured):
		log.Warn("ANTHROPIC_API_KEY not set, /api/analyze-csv disabled")
	case err != nil:
		return nil, err
	default:
		a.Analyzer = claude
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if n := up.RequestLimit(); n > 0 {
		r.MaxMultipartMemory = n
	}
	r.Use(RequestID(), RequestLogger(log), Recovery(log, cfg.IsDevelopment()))
	useCORS(r, cfg.ClientURL)
	a.Router = r

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SeedUsers(ctx, a.Store, log); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return a, nil
}

func MustNew(cfg config.Config, log *slog.Logger) *App {
	a, err := New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		panic(err)
	}
	return a
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
