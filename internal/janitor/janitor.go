// Package janitor runs the background maintenance loops: a recovery
// reconciler that fails requests stranded by a crash or hang, and a
// retention sweeper that deletes old requests and their events.
package janitor

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/lock"
)

// Defaults for the maintenance loops.
const (
	DefaultStaleAfter        = 10 * time.Minute
	DefaultReconcileInterval = 5 * time.Minute
	DefaultSweepSchedule     = "0 * * * *"
	DefaultRetention         = 24 * time.Hour
)

// Notifier is told when the reconciler fails stranded requests. Delivery
// is best-effort.
type Notifier interface {
	Send(ctx context.Context, subject, body string)
}

// Opts configures the maintenance loops.
type Opts struct {
	StaleAfter        time.Duration // pending/running older than this get failed
	ReconcileInterval time.Duration
	SweepSchedule     string // 5-field cron expression
	Retention         time.Duration
	Notifier          Notifier  // optional
	Out               io.Writer // operator-facing lines, defaults to discard
}

func (o *Opts) applyDefaults() {
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.ReconcileInterval <= 0 {
		o.ReconcileInterval = DefaultReconcileInterval
	}
	if o.SweepSchedule == "" {
		o.SweepSchedule = DefaultSweepSchedule
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
}

// Run drives both loops until ctx is canceled. The reconciler fires once
// immediately so requests stranded by the previous process are failed
// before new traffic arrives.
func Run(ctx context.Context, db *gorm.DB, locks *lock.Table, opts Opts) error {
	if db == nil {
		return fmt.Errorf("janitor: db is required")
	}
	if locks == nil {
		return fmt.Errorf("janitor: lock table is required")
	}
	opts.applyDefaults()

	sched, err := parseSchedule(opts.SweepSchedule)
	if err != nil {
		return fmt.Errorf("janitor: sweep schedule %q: %w", opts.SweepSchedule, err)
	}

	fmt.Fprintf(opts.Out, "Janitor started: reconcile every %s (stale after %s), sweep %q (retention %s)\n",
		opts.ReconcileInterval, opts.StaleAfter, opts.SweepSchedule, opts.Retention)

	if err := Reconcile(ctx, db, locks, opts); err != nil {
		log.Printf("janitor: reconcile: %v", err)
	}

	ticker := time.NewTicker(opts.ReconcileInterval)
	defer ticker.Stop()

	sweepTimer := time.NewTimer(nextSweepDuration(sched))
	defer sweepTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(opts.Out, "Janitor stopped\n")
			return nil
		case <-ticker.C:
			if err := Reconcile(ctx, db, locks, opts); err != nil {
				log.Printf("janitor: reconcile: %v", err)
			}
		case <-sweepTimer.C:
			if err := Sweep(db, opts); err != nil {
				log.Printf("janitor: sweep: %v", err)
			}
			sweepTimer.Reset(nextSweepDuration(sched))
		}
	}
}
