package feed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Op is the row-level operation an Event describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one row-store mutation pushed through the change feed.
// Scope selects the pub/sub channel; Payload is the affected row as JSON.
type Event struct {
	Table   string          `json:"table"`
	Op      Op              `json:"op"`
	Scope   string          `json:"scope"`
	Sound   string          `json:"sound,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

const channelPrefix = "feed:"

// Bus publishes row mutations to Redis and opens scoped subscriptions.
// Every server instance shares one Redis, so events fan out cluster-wide.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish sends the event on its scope channel. The write that produced the
// event has already committed; a publish failure only delays delivery until
// the next fetch, so it is logged and not returned to the caller's user.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channelPrefix+ev.Scope, data).Err(); err != nil {
		log.Printf("[Feed] publish %s failed: %v", ev.Scope, err)
		return err
	}
	return nil
}

// Subscription delivers events for a fixed set of scopes until Close.
type Subscription struct {
	Events chan Event

	cancel context.CancelFunc
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	eventBuffer    = 64
)

// Subscribe opens a listener on the given scopes. A dropped Redis
// connection is resubscribed automatically with exponential backoff rather
// than silently going quiet until remount.
func (b *Bus) Subscribe(ctx context.Context, scopes ...string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		Events: make(chan Event, eventBuffer),
		cancel: cancel,
	}

	channels := make([]string, len(scopes))
	for i, s := range scopes {
		channels[i] = channelPrefix + s
	}

	go sub.run(ctx, b.rdb, channels)
	return sub
}

func (s *Subscription) run(ctx context.Context, rdb *redis.Client, channels []string) {
	defer close(s.Events)

	backoff := initialBackoff
	for {
		pubsub := rdb.Subscribe(ctx, channels...)

		// Confirm the subscription before trusting the channel; an
		// unreachable Redis fails here and we back off.
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Feed] subscribe failed, retrying in %s: %v", backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		s.pump(ctx, pubsub)
		pubsub.Close()
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Subscription) pump(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[Feed] bad payload on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case s.Events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close tears the subscription down. Events is closed once the pump exits.
func (s *Subscription) Close() {
	s.cancel()
}
