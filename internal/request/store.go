// Package request implements the durable request store. Rows move pending
// -> running -> completed/failed; every transition is a guarded UPDATE so
// concurrent writers (worker, reconciler, sweeper) cannot double-apply.
package request

import (
	"errors"
	"fmt"
	"time"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"gorm.io/gorm"
)

// CrashRecoveryMessage is recorded on rows failed by the recovery
// reconciler, so pollers can tell a crashed run from a generation error.
const CrashRecoveryMessage = "crash recovery timeout"

// ErrNotFound is returned when a request ID has no row: either it never
// existed or the retention sweeper already deleted it.
var ErrNotFound = errors.New("request not found")

// Create inserts a new pending request row.
func Create(db *gorm.DB, id, sessionID, payload string) (*models.ChatRequest, error) {
	req := models.ChatRequest{
		ID:        id,
		SessionID: sessionID,
		Status:    models.StatusPending,
		Payload:   payload,
	}
	if err := db.Create(&req).Error; err != nil {
		return nil, fmt.Errorf("request: create %s: %w", id, err)
	}
	return &req, nil
}

// Get retrieves a request by ID.
func Get(db *gorm.DB, id string) (*models.ChatRequest, error) {
	var req models.ChatRequest
	if err := db.Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("request: get %s: %w", id, err)
	}
	return &req, nil
}

// MarkRunning transitions a pending request to running. The status guard
// means a row the reconciler already failed (or the sweeper deleted)
// cannot be picked up: zero rows match and an error comes back.
func MarkRunning(db *gorm.DB, id string) error {
	now := time.Now()
	result := db.Model(&models.ChatRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusRunning,
			"started_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("request: mark running %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("request: mark running %s: not found or not pending", id)
	}
	return nil
}

// Complete transitions a running request to completed and stores its result.
func Complete(db *gorm.DB, id, result string) error {
	now := time.Now()
	res := db.Model(&models.ChatRequest{}).
		Where("id = ? AND status = ?", id, models.StatusRunning).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"result":       result,
			"completed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("request: complete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("request: complete %s: not found or not running", id)
	}
	return nil
}

// Fail transitions a running request to failed with an error message.
func Fail(db *gorm.DB, id, message string) error {
	now := time.Now()
	res := db.Model(&models.ChatRequest{}).
		Where("id = ? AND status = ?", id, models.StatusRunning).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": message,
			"completed_at":  now,
		})
	if res.Error != nil {
		return fmt.Errorf("request: fail %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("request: fail %s: not found or not running", id)
	}
	return nil
}

// FailStale fails every pending or running request created before cutoff,
// recording the crash-recovery message. It returns the failed rows as they
// were when selected, so the caller can force-release their session locks
// and report what was lost. Rows a worker finishes between select and
// update are skipped, not reported.
func FailStale(db *gorm.DB, cutoff time.Time) ([]models.ChatRequest, error) {
	var failed []models.ChatRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var stale []models.ChatRequest
		if err := tx.Where("status IN ? AND created_at < ?",
			[]string{models.StatusPending, models.StatusRunning}, cutoff).
			Find(&stale).Error; err != nil {
			return fmt.Errorf("find stale: %w", err)
		}

		now := time.Now()
		for _, req := range stale {
			res := tx.Model(&models.ChatRequest{}).
				Where("id = ? AND status = ?", req.ID, req.Status).
				Updates(map[string]interface{}{
					"status":        models.StatusFailed,
					"error_message": CrashRecoveryMessage,
					"completed_at":  now,
				})
			if res.Error != nil {
				return fmt.Errorf("fail %s: %w", req.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			failed = append(failed, req)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("request: fail stale: %w", err)
	}
	return failed, nil
}

// Delete removes a request row and its events. Used to roll back a submit
// the queue rejected, so the rejection leaves no trace.
func Delete(db *gorm.DB, id string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&models.ChatEvent{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.ChatRequest{}).Error; err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("request: delete %s: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes requests created strictly before cutoff, events
// first, regardless of status. Returns how many rows of each went.
func DeleteOlderThan(db *gorm.DB, cutoff time.Time) (requests, events int64, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.ChatRequest{}).
			Select("id").
			Where("created_at < ?", cutoff)

		res := tx.Where("request_id IN (?)", expired).Delete(&models.ChatEvent{})
		if res.Error != nil {
			return fmt.Errorf("delete events: %w", res.Error)
		}
		events = res.RowsAffected

		res = tx.Where("created_at < ?", cutoff).Delete(&models.ChatRequest{})
		if res.Error != nil {
			return fmt.Errorf("delete requests: %w", res.Error)
		}
		requests = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("request: delete older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return requests, events, nil
}

// CountByStatus returns request counts keyed by status.
func CountByStatus(db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := db.Model(&models.ChatRequest{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("request: count by status: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// Recent returns the newest requests, most recent first.
func Recent(db *gorm.DB, limit int) ([]models.ChatRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var reqs []models.ChatRequest
	if err := db.Order("created_at DESC").Limit(limit).Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("request: recent: %w", err)
	}
	return reqs, nil
}
