// Package notify publishes panel events on the Redis channel read by the websocket handler.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries every admin panel event.
const Channel = "admin_notify"

// Event kinds.
const (
	KindIntakeSaved  = "intake_saved"
	KindUserDeleted  = "user_deleted"
	KindExportReady  = "export_ready"
	KindExportFailed = "export_failed"
	KindSheetReady   = "sheet_ready"
	KindSheetFailed  = "sheet_failed"
)

// Event 是经 Redis Pub/Sub 转发给前端的消息。字段名与前端解析保持一致。
type Event struct {
	Kind          string    `json:"kind"`
	UserID        uint      `json:"user_id,omitempty"`
	OperatorID    uint      `json:"operator_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	URL           string    `json:"url,omitempty"`
	Message       string    `json:"message,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher sends events; implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes JSON events on Channel.
type RedisPublisher struct {
	client redisPublisher
	now    func() time.Time
}

// NewRedisPublisher wraps a go-redis client.
func NewRedisPublisher(client redisPublisher) *RedisPublisher {
	return &RedisPublisher{client: client, now: time.Now}
}

// Publish stamps the event time when unset and sends it.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", Channel, err)
	}
	return nil
}

// Discard drops every event. Used when Redis is not configured and in tests.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
