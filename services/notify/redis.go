package notifysvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/specedu/caseboard/core"
)

// RedisNotifier publishes events on a Redis channel so every API process can relay them to its own sessions.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  core.Logger
}

var _ core.Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier connects to redisURL.
func NewRedisNotifier(redisURL, channel string, logger core.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, event string, payload interface{}) {
	data, err := json.Marshal(core.Event{Name: event, Data: payload})
	if err != nil {
		n.logger.Error(fmt.Sprintf("encoding %s event: %v", event, err), err)
		return
	}
	if err := n.client.Publish(context.WithoutCancel(ctx), n.channel, data).Err(); err != nil {
		n.logger.Error(fmt.Sprintf("publishing %s event: %v", event, err), err)
	}
}

// Relay forwards the channel's events into hub until ctx is done.
// ready, when not nil, is closed once the subscription is active.
func (n *RedisNotifier) Relay(ctx context.Context, hub *Hub, ready chan<- struct{}) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribing to events channel")
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt struct {
				Name string          `json:"event"`
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				n.logger.Warn(fmt.Sprintf("dropping malformed event: %v", err), err)
				continue
			}
			hub.Publish(core.Event{Name: evt.Name, Data: evt.Data})
		}
	}
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
