package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher emits JSON events on NATS subjects under a fixed prefix,
// e.g. "evt.rentmanager.property".
type Publisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
}

// New creates a Publisher on an established connection.
func New(conn Conn, prefix string, logger *zap.Logger) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("publisher: nil connection")
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// Subject returns the full subject for a suffix.
func (p *Publisher) Subject(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "." + suffix
}

// Publish marshals v as JSON and publishes it on prefix.suffix.
func (p *Publisher) Publish(ctx context.Context, suffix string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publisher: marshal %s: %w", suffix, err)
	}

	subject := p.Subject(suffix)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("nats.publish_failed",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("publisher: publish %s: %w", subject, err)
	}
	return nil
}

// Name identifies the publisher as a record sink.
func (p *Publisher) Name() string { return "nats" }

// Emit publishes a shaped record on prefix.<kind>.
func (p *Publisher) Emit(ctx context.Context, rec model.Record) error {
	return p.Publish(ctx, rec.Kind, rec)
}
