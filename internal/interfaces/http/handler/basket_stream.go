package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketday/backend/internal/domain/basket"
	"go.uber.org/zap"
)

// BasketStreamHandler streams basket snapshots to clients over SSE so the
// UI can render totals and reconciliation state without polling
type BasketStreamHandler struct {
	store  *basket.Store
	logger *zap.Logger

	heartbeatInterval time.Duration
}

// NewBasketStreamHandler creates a basket SSE handler
func NewBasketStreamHandler(store *basket.Store, logger *zap.Logger) *BasketStreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasketStreamHandler{
		store:             store,
		logger:            logger.Named("basket_sse"),
		heartbeatInterval: 30 * time.Second,
	}
}

// Stream handles an SSE connection. The first event replays the current
// snapshot; afterwards one event is delivered per basket mutation, coalesced
// to the latest state for slow clients.
// GET /api/v1/basket/stream
func (h *BasketStreamHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, Fail("INTERNAL_ERROR", "Streaming not supported"))
		return
	}

	updates, cancel := h.store.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	h.logger.Debug("basket stream opened", zap.String("client", c.ClientIP()))

	for {
		select {
		case <-c.Request.Context().Done():
			h.logger.Debug("basket stream closed", zap.String("client", c.ClientIP()))
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			if err := h.writeEvent(c, flusher, snap); err != nil {
				h.logger.Debug("basket stream write failed", zap.Error(err))
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent serializes one snapshot as an SSE "basket" event
func (h *BasketStreamHandler) writeEvent(c *gin.Context, flusher http.Flusher, snap basket.Snapshot) error {
	payload, err := json.Marshal(toBasketDTO(snap, h.store.Origin()))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "event: basket\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
