package natsadapter

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stopmap/internal/core/ports"
)

// Subscriber implements ports.LocationSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and enables JetStream.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeLocations delivers device location reports. A report whose body
// names no session is addressed by its subject suffix.
func (s *Subscriber) SubscribeLocations(ctx context.Context, handler func(ctx context.Context, u ports.LocationUpdate) error) error {
	sub, err := s.js.Subscribe(locationSubjectPrefix+">", func(msg *nats.Msg) {
		var u ports.LocationUpdate
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			_ = msg.Term()
			return
		}
		if u.SessionID == "" {
			u.SessionID = sessionFromSubject(msg.Subject)
		}
		if err := handler(ctx, u); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("location-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
