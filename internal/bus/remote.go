package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bridge mirrors a local bus onto a namespaced Redis Pub/Sub channel so that
// independent processes rendering the same chart stay selection-linked.
//
// Loop prevention works the same way as the per-view suppression flag, one
// level up: every bridge stamps relayed entries with its session UUID and
// drops incoming entries carrying its own stamp, so a broadcast crosses the
// wire exactly once per remote process.
type Bridge struct {
	rdb          *redis.Client
	instanceName string
	sessionID    string
	bus          *Bus
}

// NewBridge creates a bridge between a local bus and the selection channel
// of the named instance. Returns an error if instanceName is empty.
func NewBridge(redisOpts *redis.Options, instanceName string, b *Bus) (*Bridge, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &Bridge{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		sessionID:    uuid.New().String(),
		bus:          b,
	}, nil
}

// SessionID returns the bridge's session identity.
func (br *Bridge) SessionID() string {
	return br.sessionID
}

// Run relays entries in both directions until the context is cancelled.
// Local broadcasts are republished to Redis; remote entries are injected
// into the local bus. Relay errors are logged and skipped: a flaky link
// degrades to local-only cross-filtering, never a crash.
func (br *Bridge) Run(ctx context.Context) error {
	channel := SelectionEventsChannel(br.instanceName)
	pubsub := br.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	cancelTap := br.bus.Tap(func(e Entry) {
		if e.SessionID != "" {
			// Already travelled the wire once; relaying again would echo.
			return
		}
		e.SessionID = br.sessionID
		payload, err := json.Marshal(e)
		if err != nil {
			log.Printf("[Bridge] Failed to marshal selection entry: %v", err)
			return
		}
		if err := br.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			log.Printf("[Bridge] Failed to publish selection entry: %v", err)
		}
	})
	defer cancelTap()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var entry Entry
			if err := json.Unmarshal([]byte(msg.Payload), &entry); err != nil {
				log.Printf("[Bridge] Failed to unmarshal selection entry: %v", err)
				continue
			}

			if entry.SessionID == br.sessionID {
				// Own echo coming back off the channel.
				continue
			}

			br.bus.Publish(entry)
		}
	}
}

// Close closes the Redis connection. Implements io.Closer.
func (br *Bridge) Close() error {
	return br.rdb.Close()
}
