package janitor

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

// Sweep deletes requests older than Retention along with their events,
// whatever their status.
func Sweep(db *gorm.DB, opts Opts) error {
	opts.applyDefaults()

	cutoff := time.Now().Add(-opts.Retention)
	requests, events, err := request.DeleteOlderThan(db, cutoff)
	if err != nil {
		return err
	}
	if requests > 0 || events > 0 {
		fmt.Fprintf(opts.Out, "Swept %d request(s) and %d event(s) older than %s\n", requests, events, opts.Retention)
	}
	return nil
}
