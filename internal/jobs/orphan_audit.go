// Package jobs runs scheduled maintenance against the feed store.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"appfeed/internal/observability"

	"github.com/robfig/cron/v3"
)

// DefaultOrphanAuditSchedule runs the audit hourly.
const DefaultOrphanAuditSchedule = "@every 1h"

// OrphanCounter counts replies whose comment no longer exists.
type OrphanCounter interface {
	CountOrphans(ctx context.Context) (int64, error)
}

// OrphanAudit reports replies left behind by feed deletion. It never deletes
// them.
type OrphanAudit struct {
	replies OrphanCounter
	timeout time.Duration
}

func NewOrphanAudit(replies OrphanCounter) *OrphanAudit {
	return &OrphanAudit{replies: replies, timeout: 30 * time.Second}
}

// Run performs one audit and updates the orphaned replies gauge.
func (a *OrphanAudit) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	n, err := a.replies.CountOrphans(ctx)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "orphan_audit", err, nil)
		return 0, err
	}
	observability.OrphanedReplies.Set(float64(n))
	observability.GlobalLogger.InfoContext(ctx, "orphan reply audit", slog.Int64("orphaned_replies", n))
	return n, nil
}

// Scheduler owns the cron runner for maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the audit on schedule. An empty schedule uses the
// default.
func NewScheduler(schedule string, audit *OrphanAudit) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultOrphanAuditSchedule
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		_, _ = audit.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("schedule orphan audit %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
