package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event names published on the broker.
const (
	EventSubmissionCreated = "submission.created"
	EventSubmissionDeleted = "submission.deleted"
	EventUserCreated       = "user.created"
	EventUserLinked        = "user.linked"
	EventUserDeleted       = "user.deleted"
)

// EventPublisher fans domain events out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

type eventEnvelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

type natsPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSPublisher publishes events under "<subjectBase>.<event>". A nil
// connection yields a publisher that drops every event.
func NewNATSPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return NopPublisher{}
	}
	return &natsPublisher{
		conn:        conn,
		subjectBase: strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), "."),
		logger:      logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish is best effort: a broker failure never fails the originating write.
func (p *natsPublisher) Publish(_ context.Context, event string, payload interface{}) {
	data, err := json.Marshal(eventEnvelope{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	subject := event
	if p.subjectBase != "" {
		subject = p.subjectBase + "." + event
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, string, interface{}) {}
