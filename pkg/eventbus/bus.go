package eventbus

import (
	"context"
	"encoding/json"

	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// FirehoseTopic carries every session's events for cross-cutting consumers
// (the websocket bridge). Per-session consumers use SessionTopic instead.
const FirehoseTopic = "menu.progress.all"

// SessionTopic returns the ordered, session-scoped topic name.
func SessionTopic(sessionID string) string {
	return "menu.progress." + sessionID
}

// Bus is the push-event channel between the pipeline and its consumers,
// backed by watermill's in-process gochannel pub/sub. Delivery is in-order
// per topic, which gives the per-session ordering guarantee the coordinator
// relies on.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

// New builds the bus. Callers own Close.
func New(log logger.ILogger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 64,
			// Without this, gochannel fans each published message out on its
			// own goroutine and successive publishes race to the subscriber.
			// Blocking until ack is what keeps delivery in publish order.
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)
	return &Bus{pubSub: pubSub, logger: log}
}

// Publish sends the event to the session's topic and to the firehose.
func (b *Bus) Publish(ev progress.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(SessionTopic(ev.SessionID), msg); err != nil {
		return err
	}
	// The firehose gets its own message: watermill messages are not safe to
	// publish twice.
	return b.pubSub.Publish(FirehoseTopic, message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe implements progress.EventSource: it returns an ordered channel of
// the session's events plus a release func that deterministically tears the
// subscription down. Release is safe to call more than once.
func (b *Bus) Subscribe(sessionID string) (<-chan progress.Event, func(), error) {
	return b.subscribe(SessionTopic(sessionID))
}

// SubscribeFirehose returns every session's events, for bridge consumers.
func (b *Bus) SubscribeFirehose() (<-chan progress.Event, func(), error) {
	return b.subscribe(FirehoseTopic)
}

func (b *Bus) subscribe(topic string) (<-chan progress.Event, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan progress.Event, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			if ctx.Err() != nil {
				return
			}
			var ev progress.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn("EventBus", "Dropping malformed event", map[string]interface{}{
					"topic": topic, "error": err.Error(),
				})
				msg.Ack()
				continue
			}
			msg.Ack()
			// The consumer may have stopped reading before calling release;
			// the send must not outlive the subscription.
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

// Close shuts the underlying pub/sub down; all subscriber channels close.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
