package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type AppSession struct {
	UserID    uint  `json:"uid"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

func (s AppSession) Expired(now time.Time) bool { return now.Unix() >= s.ExpiresAt }

// Store 保存登录令牌；Get 对过期或不存在的令牌返回 ErrNotFound
type Store interface {
	Create(ctx context.Context, id string, userID uint) error
	Get(ctx context.Context, id string) (*AppSession, error)
	Delete(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
}

// Throttle.Allow 在 ttl 内对同一 key 只返回一次 true
type Throttle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) bool
}
