// Package notifications publishes post change events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"jamsesh/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// PostsChannel carries every post change event.
const PostsChannel = "jamsesh:posts"

// Post event types.
const (
	PostCreated = "post_created"
	PostUpdated = "post_updated"
	PostDeleted = "post_deleted"
)

// PostEvent tells listeners that a post changed and feeds should refresh.
type PostEvent struct {
	Type   string `json:"type"`
	PostID uint   `json:"post_id"`
	UserID uint   `json:"user_id"`
}

// Notifier provides helpers to publish notifications into Redis channels.
// A nil Notifier, or one without a client, silently drops everything.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishPostEvent sends ev to PostsChannel.
func (n *Notifier) PublishPostEvent(ctx context.Context, ev PostEvent) error {
	if !n.enabled() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, PostsChannel, string(payload)).Err()
}

// SubscribePosts calls onEvent for each post event until ctx is done.
// Malformed payloads are skipped.
func (n *Notifier) SubscribePosts(ctx context.Context, onEvent func(PostEvent)) error {
	if !n.enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, PostsChannel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", PostsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev PostEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping malformed post event", "error", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in post subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}
