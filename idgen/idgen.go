// Package idgen issues submission ids. Each namespace has its own generator:
// RPT- ids come from a counter, DL- and VV- ids from the clock.
package idgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PrefixReport   = "RPT-"
	PrefixDailyLog = "DL-"
	PrefixPrint    = "VV-"
)

type Counter interface {
	Next(ctx context.Context) (int64, error)
}

type MemoryCounter struct{ n atomic.Int64 }

func (c *MemoryCounter) Next(context.Context) (int64, error) { return c.n.Add(1), nil }

// RedisCounter 用 INCR，重启后序号不回退
type RedisCounter struct {
	rdb *redis.Client
	key string
}

func NewRedisCounter(rdb *redis.Client, key string) *RedisCounter {
	return &RedisCounter{rdb: rdb, key: key}
}

func (c *RedisCounter) Next(ctx context.Context) (int64, error) {
	return c.rdb.Incr(ctx, c.key).Result()
}

// Clock yields strictly increasing millisecond stamps, even when called
// several times within the same millisecond.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClock() *Clock { return &Clock{now: time.Now} }

func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

type Generator struct {
	counter Counter
	daily   *Clock
	print   *Clock
}

func New(counter Counter) *Generator {
	if counter == nil {
		counter = &MemoryCounter{}
	}
	return &Generator{counter: counter, daily: NewClock(), print: NewClock()}
}

func (g *Generator) ReportID(ctx context.Context) (string, error) {
	n, err := g.counter.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next report sequence: %w", err)
	}
	return fmt.Sprintf("%s%06d", PrefixReport, n), nil
}

func (g *Generator) DailyLogID() string { return PrefixDailyLog + base36(g.daily.Next()) }

func (g *Generator) PrintID() string { return PrefixPrint + base36(g.print.Next()) }

func base36(ms int64) string { return strings.ToUpper(strconv.FormatInt(ms, 36)) }

// Namespace returns the prefix of a submission id, or "" if unknown.
func Namespace(id string) string {
	for _, p := range []string{PrefixReport, PrefixDailyLog, PrefixPrint} {
		if strings.HasPrefix(id, p) && len(id) > len(p) {
			return p
		}
	}
	return ""
}
