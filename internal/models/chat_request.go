package models

import "time"

// Request status values. A request is created pending, a worker moves it to
// running, and it ends in exactly one of completed or failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Event kinds recorded during generation.
const (
	EventAssistantText = "assistant_text"
	EventToolCall      = "tool_call"
	EventToolResult    = "tool_result"
	EventError         = "error"
)

// ChatRequest is the durable record of one submitted generation request.
// The row is created at submit time and outlives the process; the retention
// sweeper eventually deletes it.
type ChatRequest struct {
	ID           string `gorm:"primaryKey;size:64"`
	SessionID    string `gorm:"size:64;not null;index"`
	Status       string `gorm:"size:16;default:pending;index"`
	Payload      string `gorm:"type:json"`
	Result       string `gorm:"type:json"`
	ErrorMessage string `gorm:"type:text"`

	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Events []ChatEvent `gorm:"foreignKey:RequestID"`
}

// IsTerminal reports whether the request has reached a final status.
// Terminal rows never change again except by deletion.
func (r *ChatRequest) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// ChatEvent is one ordered increment of generation output. Sequences start
// at 1 and are gapless per request; rows are append-only.
type ChatEvent struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RequestID string `gorm:"size:64;not null;uniqueIndex:idx_request_seq"`
	Sequence  int    `gorm:"not null;uniqueIndex:idx_request_seq"`
	Kind      string `gorm:"size:16;not null"`
	Payload   string `gorm:"type:json"`
	CreatedAt time.Time
}
