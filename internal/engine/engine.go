// Package engine implements the decoupling core of slidegen: a bounded
// in-memory job queue, worker goroutines that drive request rows through
// their lifecycle, and the submit/poll operations the gateway exposes.
//
// Submissions return a request ID immediately; the slow generation happens
// on a worker goroutine, recording progress in the event log. Callers read
// progress back with Poll over a fresh connection each time, so nothing
// here depends on a connection staying open.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/lock"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
	"gorm.io/gorm"
)

// Sentinel errors surfaced through Submit. The gateway maps these to HTTP
// status codes with errors.Is.
var (
	ErrSessionBusy   = errors.New("session busy")
	ErrQueueFull     = errors.New("queue full")
	ErrEngineStopped = errors.New("engine not running")
)

// Generator produces the slow, multi-step output for one request. Run
// blocks until the work finishes, emitting incremental events through sink
// along the way, and returns the final serialized result. The context is
// cancelled when the engine stops.
type Generator interface {
	Run(ctx context.Context, payload string, sink Sink) (string, error)
}

// Sink accepts incremental events during a generation run. Each Append is
// assigned the next sequence number and is durable before it returns.
type Sink interface {
	Append(kind, payload string) error
}

// job is one queued unit of work. Ephemeral: if the process dies before a
// worker dequeues it, the row it points at is recovered by the reconciler.
type job struct {
	requestID string
	sessionID string
	payload   string
}

// Opts configures an Engine.
type Opts struct {
	Workers   int
	QueueSize int
	Out       io.Writer
}

// Engine owns the job queue, the session lock table, and the worker pool.
// Construct with New, then Start. Submit and Poll are safe for concurrent
// use from any goroutine.
type Engine struct {
	db    *gorm.DB
	gen   Generator
	locks *lock.Table
	out   io.Writer

	queue   chan job
	workers int

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an Engine. Zero Opts get one worker and a 32-slot queue.
func New(db *gorm.DB, gen Generator, opts Opts) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Engine{
		db:      db,
		gen:     gen,
		locks:   lock.New(),
		out:     opts.Out,
		queue:   make(chan job, opts.QueueSize),
		workers: opts.Workers,
	}
}

// Locks exposes the session lock table. The janitor force-releases locks
// through it when it fails stale requests.
func (e *Engine) Locks() *lock.Table { return e.locks }

// QueueDepth returns the number of queued, not yet dequeued jobs.
func (e *Engine) QueueDepth() int { return len(e.queue) }

// QueueCapacity returns the queue bound.
func (e *Engine) QueueCapacity() int { return cap(e.queue) }

// Start launches the worker goroutines. The passed context governs their
// lifetime alongside Stop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine: already started")
	}
	if e.db == nil {
		return fmt.Errorf("engine: db is required")
	}
	if e.gen == nil {
		return fmt.Errorf("engine: generator is required")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.started = true

	for n := 0; n < e.workers; n++ {
		e.wg.Add(1)
		go e.runWorker(workerCtx, n)
	}
	fmt.Fprintf(e.out, "Engine started: %d worker(s), queue capacity %d\n", e.workers, cap(e.queue))
	return nil
}

// Stop cancels the workers and waits for them to exit. An in-flight
// generation observes the cancellation through its context and fails; its
// session lock is still released on the way out. Stop on a stopped engine
// is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	fmt.Fprintf(e.out, "Engine stopped\n")
}

func (e *Engine) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Submit registers a generation request for a session and queues it,
// returning the request ID without waiting for any generation work. A
// rejected submit (ErrSessionBusy, ErrQueueFull) leaves no trace: no row,
// no events, no held lock.
func (e *Engine) Submit(sessionID, payload string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("engine: session_id is required")
	}
	if !e.running() {
		return "", ErrEngineStopped
	}

	if !e.locks.Acquire(sessionID) {
		return "", fmt.Errorf("engine: session %s: %w", sessionID, ErrSessionBusy)
	}

	id, err := e.generateRequestID()
	if err != nil {
		e.locks.Release(sessionID)
		return "", err
	}

	if _, err := request.Create(e.db, id, sessionID, payload); err != nil {
		e.locks.Release(sessionID)
		return "", err
	}

	select {
	case e.queue <- job{requestID: id, sessionID: sessionID, payload: payload}:
	default:
		// Queue full. Roll the row back before releasing the lock so a
		// retry never finds a half-submitted request.
		if delErr := request.Delete(e.db, id); delErr != nil {
			log.Printf("engine: rollback %s after full queue: %v", id, delErr)
		}
		e.locks.Release(sessionID)
		return "", fmt.Errorf("engine: session %s: %w", sessionID, ErrQueueFull)
	}

	fmt.Fprintf(e.out, "Accepted request %s (session %s)\n", id, sessionID)
	return id, nil
}

// generateRequestID creates a req_-prefixed ID, retrying once on the off
// chance the store already has it.
func (e *Engine) generateRequestID() (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id := "req_" + uuid.NewString()[:8]
		var count int64
		if err := e.db.Model(&models.ChatRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("engine: check request ID: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("engine: could not generate a unique request ID")
}

// PollResult is one poll response: the request's current status plus the
// events after the caller's cursor. Result is set only for completed
// requests, Error only for failed ones.
type PollResult struct {
	RequestID string
	Status    string
	Events    []models.ChatEvent
	NextAfter int
	Result    string
	Error     string
}

// Poll reads a request's status and its events with sequence greater than
// afterSeq, ascending. It never blocks on generation progress, and
// identical calls return identical event slices for as long as the row
// exists. Returns request.ErrNotFound for unknown or already-swept IDs.
func (e *Engine) Poll(requestID string, afterSeq int) (*PollResult, error) {
	req, err := request.Get(e.db, requestID)
	if err != nil {
		return nil, err
	}
	events, err := request.EventsAfter(e.db, requestID, afterSeq)
	if err != nil {
		return nil, err
	}

	res := &PollResult{
		RequestID: req.ID,
		Status:    req.Status,
		Events:    events,
		NextAfter: afterSeq,
	}
	if len(events) > 0 {
		res.NextAfter = events[len(events)-1].Sequence
	}
	switch req.Status {
	case models.StatusCompleted:
		res.Result = req.Result
	case models.StatusFailed:
		res.Error = req.ErrorMessage
	}
	return res, nil
}
