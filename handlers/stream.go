package handlers

import (
	"net/http"

	"brewpass-backend/firebase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StreamHandler struct {
	Watcher firebase.BalanceWatcher
}

// StreamBalances pushes the caller's balance document to the client as
// server-sent events, one event per change. The connection stays open until
// the client disconnects.
func (h *StreamHandler) StreamBalances(c *gin.Context) {
	if h.Watcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are not available"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	snapshots, err := h.Watcher.Watch(c.Request.Context(), userID.String())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are not available"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			c.SSEvent("balances", gin.H{
				"points":     snap.Points,
				"updated_at": snap.At,
			})
			c.Writer.Flush()
		}
	}
}
