// Package notify publishes episode-completion notifications over Redis
// pub/sub, consumed by upstream benchmark aggregators that group episodes by
// their benchmark tag.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultChannel = "episodesim:episode-completed"

// Options configures a Notifier.
type Options struct {
	// Redis is the connection used to publish notifications. Required.
	Redis *redis.Client
	// Channel overrides the default pub/sub channel name.
	Channel string
}

// Completion is the payload published when an episode finishes: enough for
// a subscriber to fetch the full log from the storage sink without the log
// body itself crossing the wire twice.
type Completion struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	Environment string `json:"environment"`
	Terminated  bool   `json:"terminated"`
}

// Notifier publishes Completion events to a Redis channel.
type Notifier struct {
	redis   *redis.Client
	channel string
}

// New constructs a Notifier. The Redis field in opts is required.
func New(opts Options) (*Notifier, error) {
	if opts.Redis == nil {
		return nil, errors.New("notify: redis client is required")
	}
	channel := opts.Channel
	if channel == "" {
		channel = defaultChannel
	}
	return &Notifier{redis: opts.Redis, channel: channel}, nil
}

// Publish announces an episode's completion. A publish failure is returned
// to the caller to log; per error kind 5, it must never be treated as a
// reason to fail the episode that already completed.
func (n *Notifier) Publish(ctx context.Context, c Completion) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("notify: encode completion: %w", err)
	}
	if err := n.redis.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish completion: %w", err)
	}
	return nil
}

// Subscribe returns a channel of Completion events observed on the
// notifier's channel. Malformed payloads are dropped rather than delivered,
// since a subscriber cannot recover from them locally. Callers must drain
// the returned channel until ctx is done to release the underlying
// subscription.
func (n *Notifier) Subscribe(ctx context.Context) <-chan Completion {
	sub := n.redis.Subscribe(ctx, n.channel)
	out := make(chan Completion)

	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var c Completion
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
