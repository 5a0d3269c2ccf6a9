package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yaxxerr/ai-security-system/internal/domain"
	"github.com/yaxxerr/ai-security-system/internal/metrics"
	redisdb "github.com/yaxxerr/ai-security-system/internal/redis"
)

// relayChannel is the Redis Pub/Sub channel shared by all instances.
const relayChannel = "security:events"

const (
	forwardTimeout   = 2 * time.Second
	resubscribeDelay = time.Second
)

// relayMessage is the wire format exchanged between instances. Origin lets a
// subscriber discard its own publications so locally-dispatched envelopes are
// never delivered twice.
type relayMessage struct {
	Origin  uuid.UUID        `json:"origin"`
	Channel string           `json:"channel"`
	Kind    domain.EventKind `json:"kind"`
	Frame   domain.FrameType `json:"frame"`
	Payload json.RawMessage  `json:"payload"`
}

// LocalSink receives envelopes relayed from peer instances for local-only
// dispatch. Implementations must not forward them back to the relay.
type LocalSink interface {
	DispatchLocal(env domain.Envelope)
}

// Relay fans envelopes out across instances via Redis Pub/Sub. Each instance
// publishes everything it routes locally and dispatches everything it
// receives from peers, so a subscriber connected to any instance sees events
// produced on all of them.
type Relay struct {
	rdb    *goredis.Client
	origin uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRelay(client *redisdb.Client) *Relay {
	return &Relay{
		rdb:    client.Underlying(),
		origin: uuid.New(),
		done:   make(chan struct{}),
	}
}

// Start subscribes to the relay channel and dispatches received envelopes to
// the sink until Shutdown is called or ctx is cancelled.
func (rl *Relay) Start(ctx context.Context, sink LocalSink) {
	subCtx, cancel := context.WithCancel(ctx)
	rl.cancel = cancel

	sub := rl.rdb.Subscribe(subCtx, relayChannel)
	go rl.receiveLoop(subCtx, sub, sink)
	slog.Info("Event relay started", "origin", rl.origin.String())
}

// Forward publishes an envelope to peer instances. Failures are logged and
// swallowed: relay trouble must never break local delivery.
func (rl *Relay) Forward(env domain.Envelope) {
	msg := relayMessage{
		Origin:  rl.origin,
		Channel: env.Channel,
		Kind:    env.Kind,
		Frame:   env.Frame,
		Payload: env.Payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal relay message", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
	defer cancel()

	if err := rl.rdb.Publish(ctx, relayChannel, data).Err(); err != nil {
		slog.Error("Failed to publish relay message", "channel", env.Channel, "error", err)
		return
	}
	metrics.RelayMessagesTotal.WithLabelValues("published").Inc()
}

func (rl *Relay) receiveLoop(ctx context.Context, sub *goredis.PubSub, sink LocalSink) {
	defer close(rl.done)
	defer func() { _ = sub.Close() }()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, goredis.ErrClosed) {
				return
			}
			metrics.RelayReconnectsTotal.Inc()
			slog.Warn("Relay subscription interrupted, retrying", "error", err)
			select {
			case <-time.After(resubscribeDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		var relayed relayMessage
		if err := json.Unmarshal([]byte(msg.Payload), &relayed); err != nil {
			slog.Error("Failed to unmarshal relay message", "error", err)
			continue
		}

		if relayed.Origin == rl.origin {
			metrics.RelayMessagesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		metrics.RelayMessagesTotal.WithLabelValues("received").Inc()
		sink.DispatchLocal(domain.Envelope{
			Channel: relayed.Channel,
			Kind:    relayed.Kind,
			Frame:   relayed.Frame,
			Payload: relayed.Payload,
		})
	}
}

// Shutdown stops the subscription and waits for the receive loop to exit.
func (rl *Relay) Shutdown() {
	if rl.cancel == nil {
		return
	}
	rl.cancel()
	<-rl.done
}
