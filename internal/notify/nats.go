package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const DefaultSubjectPrefix = "wallet.events"

// NATSSink publishes events as JSON to <prefix>.<kind> so downstream alert
// and email workers can subscribe per variant.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.L().Warn("Disconnected from NATS", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS at %s: %w", url, err)
	}

	zap.L().Info("Connected to NATS", zap.String("url", url), zap.String("subject_prefix", subjectPrefix))
	return &NATSSink{conn: conn, prefix: subjectPrefix}, nil
}

func (s *NATSSink) Emit(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("unable to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", s.prefix, event.Kind)
	if err := s.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("unable to publish to %s: %w", subject, err)
	}
	return nil
}

func (s *NATSSink) Close() {
	if err := s.conn.Drain(); err != nil {
		zap.L().Warn("Failed to drain NATS connection", zap.Error(err))
	}
}
