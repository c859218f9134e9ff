package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

const (
	// StreamName is the name of the trip assistant event stream.
	StreamName = "TRIP_ASSISTANT"

	// TripSubjectPrefix prefixes trip lifecycle subjects.
	TripSubjectPrefix = "trips"

	// ChatSubjectPrefix prefixes conversation subjects.
	ChatSubjectPrefix = "chat"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the event stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{TripSubjectPrefix + ".>", ChatSubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      m.client.cfg.StreamMaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Trip assistant conversation and trip events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TripSubject returns the subject for a trip event.
func TripSubject(userID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", TripSubjectPrefix, subjectToken(userID), eventType)
}

// ChatSubject returns the subject for a conversation event.
func ChatSubject(userID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", ChatSubjectPrefix, subjectToken(userID), eventType)
}

// subjectToken makes a user ID safe to use as a single subject token.
func subjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(id)
}

// PublishTripCreated publishes a trip creation event.
func (m *StreamManager) PublishTripCreated(ctx context.Context, event *model.TripCreatedEvent) error {
	return m.publish(ctx, "trip_created", TripSubject(event.UserID, model.EventTypeTripCreated), event,
		jetstream.WithMsgID("trip-"+event.TripID))
}

// PublishTurnLogged publishes an assistant turn event.
func (m *StreamManager) PublishTurnLogged(ctx context.Context, event *model.TurnLoggedEvent) error {
	return m.publish(ctx, "turn_logged", ChatSubject(event.UserID, model.EventTypeTurnLogged), event)
}

func (m *StreamManager) publish(ctx context.Context, kind, subject string, v any, opts ...jetstream.PublishOpt) error {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, subject, data, opts...); err != nil {
		metrics.EventsPublished.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(kind, "ok").Inc()
	return nil
}
