package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/live"
)

const keepAliveInterval = 25 * time.Second

// streamSnapshots relays a live subscription as Server-Sent Events until the
// client disconnects or the subscription ends.
func streamSnapshots[T any](c *gin.Context, sub *live.Subscription[T]) {
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	updates := sub.Updates()
	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
