package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// relayEnvelope is the wire format shared by every node.
type relayEnvelope struct {
	Source string          `json:"source"`
	SentAt time.Time       `json:"sent_at"`
	Body   json.RawMessage `json:"body"`
}

// relay replicates realtime events to the other API nodes. NATS is used when
// connected, redis pub/sub otherwise; with neither the relay is a no-op.
// A node drops its own events because it already delivered them locally.
type relay struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
}

func newRelay(redisClient *redis.Client, natsConn *nats.Conn, base, topic string, logger zerolog.Logger) *relay {
	r := &relay{nodeID: uuid.NewString(), logger: logger}
	if base == "" {
		return r
	}
	switch {
	case natsConn != nil:
		r.nats = natsConn
		r.subject = strings.ReplaceAll(base, ":", ".") + "." + topic
	case redisClient != nil:
		r.redis = redisClient
		r.channel = base + ":" + topic
	}
	return r
}

func (r *relay) active() bool {
	return r.nats != nil || r.redis != nil
}

func (r *relay) seal(body interface{}) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(relayEnvelope{Source: r.nodeID, SentAt: time.Now().UTC(), Body: raw})
}

func (r *relay) send(ctx context.Context, body interface{}) error {
	if !r.active() {
		return nil
	}
	payload, err := r.seal(body)
	if err != nil {
		return err
	}
	if r.nats != nil {
		return r.nats.Publish(r.subject, payload)
	}
	return r.redis.Publish(ctx, r.channel, payload).Err()
}

// accept hands the body of a foreign envelope to deliver.
func (r *relay) accept(payload []byte, deliver func(json.RawMessage)) {
	var envelope relayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		r.logger.Warn().Err(err).Msg("dropping malformed relay event")
		return
	}
	if envelope.Source == r.nodeID || len(envelope.Body) == 0 {
		return
	}
	deliver(envelope.Body)
}

// listen subscribes in the background until ctx is done.
func (r *relay) listen(ctx context.Context, deliver func(json.RawMessage)) {
	switch {
	case r.nats != nil:
		// no queue group: every node serves its own connected clients
		sub, err := r.nats.Subscribe(r.subject, func(msg *nats.Msg) {
			r.accept(msg.Data, deliver)
		})
		if err != nil {
			r.logger.Error().Err(err).Str("subject", r.subject).Msg("relay subscribe failed")
			return
		}
		go func() {
			<-ctx.Done()
			if err := sub.Drain(); err != nil {
				r.logger.Warn().Err(err).Msg("relay drain failed")
			}
		}()
	case r.redis != nil:
		go r.listenRedis(ctx, deliver)
	}
}

func (r *relay) listenRedis(ctx context.Context, deliver func(json.RawMessage)) {
	pubsub := r.redis.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Error().Err(err).Str("channel", r.channel).Msg("relay subscription closed")
			}
			return
		}
		r.accept([]byte(msg.Payload), deliver)
	}
}
