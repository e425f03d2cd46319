package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// GroupAdmin is the channel the admin dashboard subscribes to for live
// account updates.
const GroupAdmin = "admin"

// Message is the wire envelope a socket gateway relays to subscribers
// of a group.
type Message struct {
	Event   string      `json:"event"`
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

type Broadcaster interface {
	Publish(ctx context.Context, group, event, action string, payload interface{}) error
}

// RedisBroadcaster fans events out over redis pub/sub. Delivery is
// fire-and-forget: a message published while no gateway is subscribed
// is simply dropped.
type RedisBroadcaster struct {
	redisdb *redis.Client
}

func NewRedisBroadcaster(client *Client) *RedisBroadcaster {
	return &RedisBroadcaster{redisdb: client.Raw()}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, group, event, action string, payload interface{}) error {
	msg := Message{Event: event, Action: action, Payload: payload}

	body, err := json.Marshal(msg)

	if err != nil {
		return err
	}

	return b.redisdb.Publish(ctx, channelFor(group), body).Err()
}

func channelFor(group string) string {
	return "realtime:" + group
}
