// scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"verivault/config"
	"verivault/db"
	"verivault/session"
	"verivault/uploads"

	"github.com/robfig/cron/v3"
)

// Purger is implemented by session stores that keep expired entries around
// until told otherwise. Redis expires keys on its own.
type Purger interface {
	PurgeExpired() int
}

type Scheduler struct {
	cron     *cron.Cron
	index    db.AttachmentIndex
	files    *uploads.Store
	sessions session.Store
	maxAge   time.Duration
	log      *slog.Logger
}

func New(cfg config.SchedulerConfig, index db.AttachmentIndex, files *uploads.Store,
	sessions session.Store, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds()), // 支持秒字段
		index:    index,
		files:    files,
		sessions: sessions,
		maxAge:   cfg.OrphanMaxAge,
		log:      log,
	}
	if _, err := s.cron.AddFunc(cfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunCleanup(ctx)
	}); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", cfg.CleanupSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// CleanupResult is what one cleanup run removed.
type CleanupResult struct {
	OrphanFiles     int
	ExpiredSessions int
}

// RunCleanup deletes upload files no record points at and purges expired
// in-process sessions.
func (s *Scheduler) RunCleanup(ctx context.Context) CleanupResult {
	var res CleanupResult

	keep, err := s.index.AttachmentFilenames(ctx)
	if err != nil {
		// without the index every file looks orphaned
		s.log.Error("cleanup: list attachments", "error", err)
	} else {
		n, err := s.files.Sweep(keep, s.maxAge)
		if err != nil {
			s.log.Warn("cleanup: sweep uploads", "error", err)
		}
		res.OrphanFiles = n
	}

	if p, ok := s.sessions.(Purger); ok {
		res.ExpiredSessions = p.PurgeExpired()
	}
	s.log.Info("cleanup finished", "orphan_files", res.OrphanFiles, "expired_sessions", res.ExpiredSessions)
	return res
}
