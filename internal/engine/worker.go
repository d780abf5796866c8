package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

// runWorker consumes jobs until the context is cancelled. Job failures
// become failed rows; they never escape the loop or kill the worker.
func (e *Engine) runWorker(ctx context.Context, n int) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.queue:
			e.process(ctx, j)
		}
	}
}

// process drives one job from running to a terminal status. The session
// lock release is deferred so no exit path can skip it.
func (e *Engine) process(ctx context.Context, j job) {
	defer e.locks.Release(j.sessionID)

	if err := request.MarkRunning(e.db, j.requestID); err != nil {
		// The reconciler or sweeper got to the row first; nothing to do.
		log.Printf("engine: skip %s: %v", j.requestID, err)
		return
	}

	sink, err := newDBSink(e.db, j.requestID)
	if err != nil {
		log.Printf("engine: sink for %s: %v", j.requestID, err)
		if failErr := request.Fail(e.db, j.requestID, fmt.Sprintf("generation failed: %v", err)); failErr != nil {
			log.Printf("engine: fail %s: %v", j.requestID, failErr)
		}
		return
	}

	result, err := e.callGenerator(ctx, j.payload, sink)
	if err != nil {
		msg := fmt.Sprintf("generation failed: %v", err)
		// Best-effort error event; the row's error_message is authoritative.
		if appendErr := sink.Append(models.EventError, errorPayload(msg)); appendErr != nil {
			log.Printf("engine: error event for %s: %v", j.requestID, appendErr)
		}
		if failErr := request.Fail(e.db, j.requestID, msg); failErr != nil {
			log.Printf("engine: fail %s: %v", j.requestID, failErr)
		}
		fmt.Fprintf(e.out, "Request %s failed: %v\n", j.requestID, err)
		return
	}

	if err := request.Complete(e.db, j.requestID, result); err != nil {
		log.Printf("engine: complete %s: %v", j.requestID, err)
		return
	}
	fmt.Fprintf(e.out, "Request %s completed with %d event(s)\n", j.requestID, sink.count())
}

// callGenerator invokes the Generator, converting a panic into an error so
// a misbehaving generator cannot take the worker down with it.
func (e *Engine) callGenerator(ctx context.Context, payload string, sink Sink) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.gen.Run(ctx, payload, sink)
}

// errorPayload wraps a failure message as an event payload.
func errorPayload(message string) string {
	data, _ := json.Marshal(map[string]string{"message": message})
	return string(data)
}
