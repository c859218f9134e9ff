package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

// ChatService runs one chat turn end to end:
// log user turn, build context, generate, extract, materialize, log reply.
type ChatService struct {
	turns        ConversationStore
	builder      *ContextBuilder
	engine       *DialogueEngine
	extractor    ActionExtractor
	materializer *TripMaterializer
	turnLogger   *TurnLogger
	events       EventPublisher
	logger       *logger.Logger
}

// ChatDeps groups the collaborators of ChatService.
type ChatDeps struct {
	Turns        ConversationStore
	Builder      *ContextBuilder
	Engine       *DialogueEngine
	Extractor    ActionExtractor
	Materializer *TripMaterializer
	TurnLogger   *TurnLogger
	Events       EventPublisher
	Logger       *logger.Logger
}

// NewChatService creates a chat service. A nil Extractor defaults to
// TrailingJSONExtractor.
func NewChatService(deps ChatDeps) *ChatService {
	extractor := deps.Extractor
	if extractor == nil {
		extractor = TrailingJSONExtractor{}
	}
	return &ChatService{
		turns:        deps.Turns,
		builder:      deps.Builder,
		engine:       deps.Engine,
		extractor:    extractor,
		materializer: deps.Materializer,
		turnLogger:   deps.TurnLogger,
		events:       deps.Events,
		logger:       deps.Logger,
	}
}

// Chat handles one user message. The user turn is persisted before the model
// is called; the assistant turn is persisted only when a reply was produced.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: user_id and message are required", ErrValidation)
	}

	ctx, span := otel.Tracer("trip-assistant").Start(ctx, "ChatService.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	log := logger.FromContext(ctx, s.logger).With(zap.String("user_id", userID))

	if _, err := s.turnLogger.LogUser(ctx, userID, req.Message); err != nil {
		return nil, err
	}

	prompt, err := s.builder.Build(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.Generate(ctx, prompt.Messages)
	if err != nil {
		return nil, err
	}

	extraction := s.extractor.Extract(raw)
	if extraction.Degraded {
		log.Debug("completion ended with unparseable JSON, replying with full text")
	}

	resp := &model.ChatResponse{
		Reply:       extraction.Message,
		Suggestions: extraction.Suggestions,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	msgType := model.MessageTypeText

	if extraction.Action != nil {
		action := *extraction.Action
		if action.City == "" {
			action.City = prompt.Slots.City
		}
		if action.Days <= 0 {
			action.Days = prompt.Slots.Days
		}

		trip, err := s.materializer.Materialize(ctx, userID, action)
		if err != nil {
			log.Error("trip materialization failed", zap.Error(err))
			return nil, err
		}

		resp.Reply = tripReply(trip)
		resp.TripID = trip.ID
		msgType = model.MessageTypeAction

		if !trip.Reused {
			s.publishTripCreated(ctx, userID, trip)
		}
	}

	if _, err := s.turnLogger.LogAssistant(ctx, userID, resp.Reply, msgType, raw, resp.TripID); err != nil {
		return nil, err
	}

	switch {
	case msgType == model.MessageTypeAction:
		metrics.RecordReply("action")
	case extraction.Degraded:
		metrics.RecordReply("degraded")
	default:
		metrics.RecordReply("text")
	}

	return resp, nil
}

// History returns every stored turn of userID in chronological order.
func (s *ChatService) History(ctx context.Context, userID string) ([]model.Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	turns, err := s.turns.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	return turns, nil
}

func (s *ChatService) publishTripCreated(ctx context.Context, userID string, trip *MaterializedTrip) {
	if s.events == nil {
		return
	}
	event := &model.TripCreatedEvent{
		UserID:    userID,
		TripID:    trip.ID,
		URL:       trip.URL,
		City:      trip.City,
		Points:    trip.Points,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.PublishTripCreated(ctx, event); err != nil {
		s.logger.Warn("failed to publish trip event",
			zap.String("trip_id", trip.ID),
			zap.Error(err),
		)
	}
}

func tripReply(trip *MaterializedTrip) string {
	if trip.Reused {
		return fmt.Sprintf("Этот маршрут уже создан. Посмотреть его можно здесь: %s", trip.URL)
	}
	return fmt.Sprintf("Маршрут создан! Я добавил %d мест в черновик поездки по городу %s. Посмотреть и отредактировать его можно здесь: %s",
		trip.Points, trip.City, trip.URL)
}
