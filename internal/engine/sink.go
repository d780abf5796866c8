package engine

import (
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
	"gorm.io/gorm"
)

// dbSink appends generator events to the event log, assigning sequence
// numbers. A request has exactly one writer (its worker), so a plain
// counter suffices; the unique index on (request_id, sequence) backstops
// the invariant at the database.
type dbSink struct {
	db        *gorm.DB
	requestID string
	seq       int
	appended  int
}

// newDBSink builds a sink positioned after the request's last recorded
// event. A fresh request starts at zero, so its first append is sequence 1.
func newDBSink(db *gorm.DB, requestID string) (*dbSink, error) {
	last, err := request.LastSequence(db, requestID)
	if err != nil {
		return nil, err
	}
	return &dbSink{db: db, requestID: requestID, seq: last}, nil
}

// Append implements Sink. The event row is committed before Append returns,
// so any poll arriving afterwards sees it.
func (s *dbSink) Append(kind, payload string) error {
	s.seq++
	if _, err := request.AppendEvent(s.db, s.requestID, s.seq, kind, payload); err != nil {
		s.seq--
		return err
	}
	s.appended++
	return nil
}

// count returns how many events this sink has written.
func (s *dbSink) count() int { return s.appended }
