// Package broker provides message publication over NATS JetStream.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/JaimeStill/adjuster/pkg/lifecycle"
)

const streamInitTimeout = 10 * time.Second

// Publisher publishes payloads to named subjects. Delivery is at-most-once
// from the caller's perspective: a returned error means the broker did not
// acknowledge the message, and no retry is performed here.
type Publisher interface {
	// Start registers startup and shutdown hooks: stream initialization and
	// connection drain.
	Start(lc *lifecycle.Coordinator) error
	// Publish sends data to subject, honoring ctx for timeout and cancellation.
	Publish(ctx context.Context, subject string, data []byte) error
}

type jetStream struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream string
	prefix string
	logger *slog.Logger
}

// New connects to the broker and prepares a JetStream context. The stream
// itself is created lazily by the startup hook registered in Start.
func New(cfg *Config, logger *slog.Logger) (Publisher, error) {
	conn, err := nats.Connect(
		cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWaitDuration()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &jetStream{
		conn:   conn,
		js:     js,
		stream: cfg.Stream,
		prefix: cfg.SubjectPrefix,
		logger: logger.With("system", "broker"),
	}, nil
}

func (b *jetStream) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting broker system")

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), streamInitTimeout)
		defer cancel()

		_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     b.stream,
			Subjects: b.subjects(),
			Storage:  jetstream.FileStorage,
		})
		if err != nil {
			b.logger.Error("broker stream initialization failed", "stream", b.stream, "error", err)
			return
		}

		b.logger.Info("broker stream ready", "stream", b.stream)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		if err := b.conn.Drain(); err != nil {
			b.logger.Error("broker drain failed", "error", err)
			return
		}

		b.logger.Info("broker connection drained")
	})

	return nil
}

func (b *jetStream) Publish(ctx context.Context, subject string, data []byte) error {
	if subject == "" {
		return ErrEmptySubject
	}

	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("%w: subject %s: %w", ErrPublishFailed, subject, err)
	}

	b.logger.DebugContext(ctx, "message published", "subject", subject, "bytes", len(data))
	return nil
}

// subjects returns the stream's subject filter. A configured prefix binds the
// stream to "<prefix>.>" plus the bare prefix subject; otherwise the stream
// captures only its own name as a subject.
func (b *jetStream) subjects() []string {
	if b.prefix != "" {
		return []string{b.prefix, b.prefix + ".>"}
	}

	return []string{b.stream}
}
