package request

import (
	"fmt"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"gorm.io/gorm"
)

// AppendEvent writes one event row. The (request_id, sequence) unique index
// rejects duplicate sequence numbers, keeping the per-request log gapless
// and append-only.
func AppendEvent(db *gorm.DB, requestID string, sequence int, kind, payload string) (*models.ChatEvent, error) {
	evt := models.ChatEvent{
		RequestID: requestID,
		Sequence:  sequence,
		Kind:      kind,
		Payload:   payload,
	}
	if err := db.Create(&evt).Error; err != nil {
		return nil, fmt.Errorf("request: append event %s/%d: %w", requestID, sequence, err)
	}
	return &evt, nil
}

// EventsAfter returns a request's events with sequence greater than
// afterSeq, in ascending sequence order. afterSeq 0 returns everything.
func EventsAfter(db *gorm.DB, requestID string, afterSeq int) ([]models.ChatEvent, error) {
	var events []models.ChatEvent
	if err := db.Where("request_id = ? AND sequence > ?", requestID, afterSeq).
		Order("sequence ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("request: events for %s after %d: %w", requestID, afterSeq, err)
	}
	return events, nil
}

// LastSequence returns the highest sequence recorded for a request, 0 when
// the request has no events.
func LastSequence(db *gorm.DB, requestID string) (int, error) {
	var last int
	if err := db.Model(&models.ChatEvent{}).
		Where("request_id = ?", requestID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return 0, fmt.Errorf("request: last sequence for %s: %w", requestID, err)
	}
	return last, nil
}
