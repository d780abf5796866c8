package janitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/lock"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

// Reconcile fails pending and running requests older than StaleAfter and
// releases their session locks. Rows are failed before locks are released
// so a session cannot start a new generation while its stranded request
// still looks live.
func Reconcile(ctx context.Context, db *gorm.DB, locks *lock.Table, opts Opts) error {
	opts.applyDefaults()

	cutoff := time.Now().Add(-opts.StaleAfter)
	stale, err := request.FailStale(db, cutoff)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	for _, req := range stale {
		locks.Release(req.SessionID)
		fmt.Fprintf(opts.Out, "Reconciled request %s (session %s): was %s since %s\n",
			req.ID, req.SessionID, req.Status, req.CreatedAt.Format(time.RFC3339))
	}

	if opts.Notifier != nil {
		var b strings.Builder
		for _, req := range stale {
			fmt.Fprintf(&b, "%s (session %s, was %s)\n", req.ID, req.SessionID, req.Status)
		}
		subject := fmt.Sprintf("slidegen: crash recovery failed %d request(s)", len(stale))
		opts.Notifier.Send(ctx, subject, b.String())
	}
	return nil
}
