package natsadapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	frameSubjectPrefix    = "overlay.frame."
	locationSubjectPrefix = "overlay.location."
)

// FrameSubject is the subject a session's frames are published on.
func FrameSubject(sessionID string) string { return frameSubjectPrefix + sessionID }

// LocationSubject is the subject location reports for a session arrive on.
func LocationSubject(sessionID string) string { return locationSubjectPrefix + sessionID }

// sessionFromSubject extracts the trailing session id of an overlay subject.
func sessionFromSubject(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return ""
}

var streams = []nats.StreamConfig{
	{
		Name:              "OVERLAY_FRAMES",
		Subjects:          []string{frameSubjectPrefix + ">"},
		Retention:         nats.LimitsPolicy,
		MaxAge:            10 * time.Minute,
		MaxMsgsPerSubject: 1,
		Storage:           nats.MemoryStorage,
	},
	{
		Name:      "OVERLAY_LOCATIONS",
		Subjects:  []string{locationSubjectPrefix + ">"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    time.Minute,
		Storage:   nats.MemoryStorage,
	},
}

// connect dials NATS and makes sure the overlay streams exist.
func connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return conn, js, nil
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
