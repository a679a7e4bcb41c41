package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventType is the kind of row change carried by a ChangeEvent.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// TableCartItems is the table whose changes are published.
const TableCartItems = "cart_items"

// ChangeEvent describes one committed row change.
type ChangeEvent struct {
	Table    string     `json:"table"`
	Type     EventType  `json:"type"`
	UserID   uuid.UUID  `json:"user_id"`
	RecordID *uuid.UUID `json:"record_id,omitempty"`
}

// Subscription delivers events for a single channel until closed.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeFeed publishes row changes and lets clients follow a channel.
type ChangeFeed interface {
	Channel(table string, userID uuid.UUID) string
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// ChannelName builds "<prefix>:<table>:user_id=eq.<uuid>".
func ChannelName(prefix, table string, userID uuid.UUID) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "realtime"
	}
	return fmt.Sprintf("%s:%s:user_id=eq.%s", prefix, table, userID)
}
