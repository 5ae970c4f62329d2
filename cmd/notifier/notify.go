package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/eventhub/internal/queue"
)

// notify logs the notification a booking message produces. Malformed
// bodies are returned as errors so the delivery is dropped, not requeued.
func notify(logger *slog.Logger) queue.Handler {
	return func(ctx context.Context, routingKey string, body []byte) error {
		var msg queue.BookingMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", routingKey, err)
		}
		if msg.BookingID == "" {
			return fmt.Errorf("decode %s: missing booking_id", routingKey)
		}

		logger.InfoContext(ctx, "notification",
			"recipient", msg.Recipient(routingKey),
			"routing_key", routingKey,
			"booking_id", msg.BookingID,
			"text", msg.Notification(routingKey),
		)
		return nil
	}
}
