package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

// EventPublisher broadcasts domain events. Publishing is best-effort.
type EventPublisher interface {
	PublishTurnLogged(ctx context.Context, event *model.TurnLoggedEvent) error
	PublishTripCreated(ctx context.Context, event *model.TripCreatedEvent) error
}

// TurnLogger appends user and assistant turns to the conversation store.
type TurnLogger struct {
	turns  ConversationStore
	events EventPublisher
	logger *logger.Logger
}

// NewTurnLogger creates a turn logger. events may be nil.
func NewTurnLogger(turns ConversationStore, events EventPublisher, log *logger.Logger) *TurnLogger {
	return &TurnLogger{
		turns:  turns,
		events: events,
		logger: log,
	}
}

// LogUser persists the inbound user message.
func (l *TurnLogger) LogUser(ctx context.Context, userID, content string) (*model.Turn, error) {
	turn := &model.Turn{
		UserID:      userID,
		Role:        model.RoleUser,
		Content:     content,
		MessageType: model.MessageTypeText,
	}
	if err := l.turns.Append(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to log user turn: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(turn.Role), string(turn.MessageType)).Inc()
	return turn, nil
}

// LogAssistant persists the assistant reply together with the raw completion
// it was extracted from.
func (l *TurnLogger) LogAssistant(ctx context.Context, userID, content string, msgType model.MessageType, raw, tripID string) (*model.Turn, error) {
	turn := &model.Turn{
		UserID:         userID,
		Role:           model.RoleAssistant,
		Content:        content,
		MessageType:    msgType,
		RawModelOutput: &raw,
	}
	if err := l.turns.Append(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to log assistant turn: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(turn.Role), string(turn.MessageType)).Inc()

	if l.events != nil {
		event := &model.TurnLoggedEvent{
			UserID:      userID,
			TurnID:      turn.ID,
			MessageType: msgType,
			TripID:      tripID,
			CreatedAt:   turn.CreatedAt,
		}
		if err := l.events.PublishTurnLogged(ctx, event); err != nil {
			l.logger.Warn("failed to publish turn event",
				zap.String("user_id", userID),
				zap.String("turn_id", turn.ID),
				zap.Error(err),
			)
		}
	}
	return turn, nil
}
