// Package notifications publishes activity events to Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"nextfilm/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Activity event types.
const (
	EventPostLiked      = "post.liked"
	EventUserFollowed   = "user.followed"
	EventCommentCreated = "comment.created"
)

const userChannelPrefix = "activity:user:"

// Event is the JSON payload published on a user's activity channel.
type Event struct {
	Type      string    `json:"type"`
	ActorID   uint      `json:"actor_id"`
	PostID    uint      `json:"post_id,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier provides helpers to publish activity events into Redis channels.
// A nil client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Publish sends ev to recipientID's channel. Events addressed to the actor
// themselves are dropped.
func (n *Notifier) Publish(ctx context.Context, recipientID uint, ev Event) error {
	if n == nil || n.rdb == nil || recipientID == 0 || recipientID == ev.ActorID {
		return nil
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = n.now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.rdb.Publish(ctx, UserChannel(recipientID), payload).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Notify publishes ev in the background. The request context is detached so a
// finished request does not cancel the publish; failures are only logged.
func (n *Notifier) Notify(ctx context.Context, recipientID uint, ev Event) {
	if n == nil || n.rdb == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	go func() {
		defer cancel()
		if err := n.Publish(pubCtx, recipientID, ev); err != nil {
			observability.Logger.WarnContext(pubCtx, "activity publish failed",
				slog.String("type", ev.Type),
				slog.Uint64("recipient_id", uint64(recipientID)),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Subscribe listens on every user activity channel and calls onMessage for
// each event until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(userID uint, ev Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
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
				userID, err := strconv.ParseUint(msg.Channel[len(userChannelPrefix):], 10, 64)
				if err != nil {
					continue
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in activity subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(uint(userID), ev)
				}()
			}
		}
	}()

	return nil
}
