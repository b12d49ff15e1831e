package natsadapter

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// Publisher implements ports.FramePublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

// PublishFrame stores the latest frame of a session. Only the most recent
// frame per session is retained by the stream.
func (p *Publisher) PublishFrame(ctx context.Context, sessionID string, frame *domain.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FrameSubject(sessionID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
