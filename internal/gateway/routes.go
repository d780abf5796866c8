package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/engine"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, eng *engine.Engine, db *gorm.DB) {
	router.POST("/api/requests", handleSubmit(eng))
	router.GET("/api/requests/:id", handlePoll(eng))
	router.GET("/api/requests", handleList(db))
	router.GET("/healthz", handleHealth(eng, db))
}

type submitBody struct {
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

// handleSubmit accepts a generation request and answers with its ID
// without waiting for the generation to run.
func handleSubmit(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body submitBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if body.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}
		if len(body.Payload) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
			return
		}

		id, err := eng.Submit(body.SessionID, string(body.Payload))
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrSessionBusy):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, engine.ErrQueueFull), errors.Is(err, engine.ErrEngineStopped):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"request_id": id,
			"status":     models.StatusPending,
		})
	}
}

// eventView is the wire shape of one generation event.
type eventView struct {
	Seq       int             `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// handlePoll reports a request's status plus the events after the
// caller's cursor.
func handlePoll(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		after := 0
		if raw := c.Query("after"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
				return
			}
			after = n
		}

		res, err := eng.Poll(c.Param("id"), after)
		if err != nil {
			if errors.Is(err, request.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		events := make([]eventView, 0, len(res.Events))
		for _, ev := range res.Events {
			events = append(events, eventView{
				Seq:       ev.Sequence,
				Kind:      ev.Kind,
				Payload:   rawOrNull(ev.Payload),
				CreatedAt: ev.CreatedAt,
			})
		}

		out := gin.H{
			"request_id": res.RequestID,
			"status":     res.Status,
			"events":     events,
			"next_after": res.NextAfter,
		}
		switch res.Status {
		case models.StatusCompleted:
			out["result"] = rawOrNull(res.Result)
		case models.StatusFailed:
			out["error"] = res.Error
		}
		c.JSON(http.StatusOK, out)
	}
}

// handleList returns the most recent requests, newest first.
func handleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			if n > 200 {
				n = 200
			}
			limit = n
		}

		rows, err := request.Recent(db, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(rows))
		for _, row := range rows {
			item := gin.H{
				"request_id": row.ID,
				"session_id": row.SessionID,
				"status":     row.Status,
				"created_at": row.CreatedAt,
			}
			if row.ErrorMessage != "" {
				item["error"] = row.ErrorMessage
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, gin.H{"requests": out})
	}
}

// handleHealth reports queue and store health.
func handleHealth(eng *engine.Engine, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := request.CountByStatus(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"queue_depth":    eng.QueueDepth(),
			"queue_capacity": eng.QueueCapacity(),
			"held_locks":     eng.Locks().Len(),
			"requests":       counts,
		})
	}
}

// rawOrNull passes s through as raw JSON, or JSON null when empty.
func rawOrNull(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}
