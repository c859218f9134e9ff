package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/trip-assistant/internal/idempotency"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
)

type harness struct {
	turns   *fakeTurnStore
	catalog *fakeCatalog
	trips   *fakeTrips
	llm     *fakeLLM
	events  *fakeEvents
	svc     *ChatService
}

func newHarness(t *testing.T, catalog *fakeCatalog, dedup idempotency.Store, responses ...string) *harness {
	t.Helper()
	log := logger.NewNop()
	h := &harness{
		turns:   &fakeTurnStore{},
		catalog: catalog,
		trips:   newFakeTrips(),
		llm:     &fakeLLM{responses: responses},
		events:  &fakeEvents{},
	}

	builder := NewContextBuilder(h.turns, catalog, ContextConfig{
		HistoryWindow: 10,
		CatalogLimit:  10,
		DefaultCity:   "Сочи",
		DefaultDays:   3,
	}, log)
	engine := NewDialogueEngine(h.llm, DialogueConfig{Model: "gpt-4", Temperature: 0.8, MaxTokens: 512}, log)
	materializer := NewTripMaterializer(catalog, h.trips, dedup, MaterializerConfig{
		CatalogLimit:  6,
		DefaultCity:   "Сочи",
		DefaultDays:   3,
		PublicBaseURL: "https://trips.example.org",
	}, log)

	h.svc = NewChatService(ChatDeps{
		Turns:        h.turns,
		Builder:      builder,
		Engine:       engine,
		Materializer: materializer,
		TurnLogger:   NewTurnLogger(h.turns, h.events, log),
		Events:       h.events,
		Logger:       log,
	})
	return h
}

func TestChat_TextReply(t *testing.T) {
	raw := "Привет! Куда хотите поехать?\n{\"suggestions\": [\"В Сочи\", \"В Казань\"]}"
	h := newHarness(t, sochiCatalog(), nil, raw)

	resp, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Привет"})
	require.NoError(t, err)

	assert.Equal(t, "Привет! Куда хотите поехать?", resp.Reply)
	assert.Equal(t, []string{"В Сочи", "В Казань"}, resp.Suggestions)
	assert.Empty(t, resp.TripID)

	turns := h.turns.snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "Привет", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, resp.Reply, turns[1].Content)
	assert.Equal(t, model.MessageTypeText, turns[1].MessageType)
	require.NotNil(t, turns[1].RawModelOutput)
	assert.Equal(t, raw, *turns[1].RawModelOutput)

	require.Len(t, h.events.turns, 1)
	assert.Equal(t, turns[1].ID, h.events.turns[0].TurnID)
	assert.Empty(t, h.trips.trips)
}

func TestChat_UserTurnPersistedBeforeGeneration(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, "Ок")
	h.llm.onComplete = func() {
		turns := h.turns.snapshot()
		require.Len(t, turns, 1)
		assert.Equal(t, model.RoleUser, turns[0].Role)
	}

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "3 дня в Сочи"})
	require.NoError(t, err)

	require.Len(t, h.llm.requests, 1)
	msgs := h.llm.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "3 дня в Сочи", msgs[1].Content)
	assert.Equal(t, "gpt-4", h.llm.requests[0].Model)
	assert.InDelta(t, 0.8, h.llm.requests[0].Temperature, 1e-9)
}

func TestChat_UserTurnStoredVerbatim(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, "Ок")
	raw := "  Хочу в Сочи\n\nна 3 дня  "

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: raw})
	require.NoError(t, err)

	turns := h.turns.snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, raw, turns[0].Content)
}

func TestChat_ValidationHasNoSideEffects(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, "unused")

	for _, req := range []*model.ChatRequest{
		{UserID: "", Message: "hi"},
		{UserID: "u1", Message: "   "},
	} {
		_, err := h.svc.Chat(context.Background(), req)
		require.ErrorIs(t, err, ErrValidation)
	}

	assert.Empty(t, h.turns.snapshot())
	assert.Empty(t, h.llm.requests)
}

func TestChat_GenerationFailureKeepsOnlyUserTurn(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil)
	h.llm.err = errBoom

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "hi"})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, errBoom)

	turns := h.turns.snapshot()
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Empty(t, h.events.turns)
}

func TestChat_EmptyCompletionIsGenerationFailure(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, "   ")

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "hi"})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Len(t, h.turns.snapshot(), 1)
}

func TestChat_DegradedCompletionRepliesWithFullText(t *testing.T) {
	raw := `Вот план {"suggestions": ["a"`
	h := newHarness(t, sochiCatalog(), nil, raw)

	resp, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, raw, resp.Reply)
	assert.Empty(t, resp.Suggestions)
	assert.NotNil(t, resp.Suggestions)
}

func TestChat_CreateTripFromTopRated(t *testing.T) {
	raw := "Создаю маршрут!\n{\"action\": \"create_trip\", \"params\": {\"city\": \"Сочи\", \"days\": 2}, \"suggestions\": [\"Спасибо\"]}"
	h := newHarness(t, sochiCatalog(), nil, raw)

	resp, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да, создай"})
	require.NoError(t, err)

	require.Len(t, h.trips.trips, 1)
	trip := h.trips.trips[0]
	assert.Equal(t, trip.ID, resp.TripID)
	assert.Contains(t, resp.Reply, "https://trips.example.org/trips/"+trip.ID)
	assert.Equal(t, []string{"Спасибо"}, resp.Suggestions)

	assert.Equal(t, "u1", trip.UserID)
	assert.Equal(t, "Маршрут от AI: Сочи", trip.Title)
	assert.Equal(t, "Сочи", trip.Location)
	assert.Equal(t, "Россия", trip.Country)
	assert.True(t, trip.IsDraft)
	assert.True(t, trip.CreatedByAI)
	assert.Zero(t, trip.Likes)
	assert.Zero(t, trip.Comments)
	require.NotNil(t, trip.PhotoURL)
	assert.Equal(t, "https://img.example/0.jpg", *trip.PhotoURL)
	assert.Equal(t, 2, int(trip.EndDate.Sub(trip.StartDate).Hours()/24))

	require.Len(t, h.trips.points, 6)
	for i, p := range h.trips.points {
		assert.Equal(t, i, p.Order)
		assert.Equal(t, trip.ID, p.TripID)
		assert.Equal(t, h.catalog.byCity["Сочи"][i].Name, p.Name)
		assert.Equal(t, "Открыто", p.HowToGet)
		assert.Equal(t, p.Description, p.Impressions)
	}
	assert.Len(t, h.trips.images, 6)

	turns := h.turns.snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, model.MessageTypeAction, turns[1].MessageType)
	assert.Equal(t, resp.Reply, turns[1].Content)

	require.Len(t, h.events.trips, 1)
	assert.Equal(t, trip.ID, h.events.trips[0].TripID)
	assert.Equal(t, 6, h.events.trips[0].Points)
	require.Len(t, h.events.turns, 1)
	assert.Equal(t, trip.ID, h.events.turns[0].TripID)
}

func TestChat_ActionWithoutParamsUsesInferredSlots(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, `Готово {"action":"create_trip"}`)

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Создай маршрут в Сочи на 4 дня"})
	require.NoError(t, err)

	require.Len(t, h.trips.trips, 1)
	trip := h.trips.trips[0]
	assert.Equal(t, "Сочи", trip.Location)
	assert.Equal(t, 4, int(trip.EndDate.Sub(trip.StartDate).Hours()/24))
}

func TestChat_NoAttractionsCreatesNothing(t *testing.T) {
	catalog := &fakeCatalog{byCity: map[string][]model.Attraction{}}
	h := newHarness(t, catalog, nil, `Ок {"action":"create_trip","params":{"city":"Атлантида","days":2}}`)

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да"})
	require.ErrorIs(t, err, ErrNoAttractionsAvailable)

	assert.Empty(t, h.trips.trips)
	assert.Empty(t, h.trips.points)
	assert.Len(t, h.turns.snapshot(), 1)
	assert.Empty(t, h.events.trips)
}

func TestChat_TripWriteFailureRollsBack(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, `Ок {"action":"create_trip","params":{"city":"Сочи"}}`)
	h.trips.failPoint = 3

	_, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да"})
	require.ErrorIs(t, err, ErrTripGenerationFailed)
	assert.ErrorIs(t, err, errBoom)

	assert.Empty(t, h.trips.trips)
	assert.Empty(t, h.trips.points)
	assert.Len(t, h.turns.snapshot(), 1)
}

func TestChat_RepeatedConfirmationReusesTrip(t *testing.T) {
	raw := `Ок {"action":"create_trip","params":{"city":"Сочи","days":3}}`
	h := newHarness(t, sochiCatalog(), idempotency.NewMemoryStore(), raw)

	first, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да"})
	require.NoError(t, err)
	second, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да, создай"})
	require.NoError(t, err)

	assert.Equal(t, first.TripID, second.TripID)
	assert.Len(t, h.trips.trips, 1)
	assert.Len(t, h.events.trips, 1)
	assert.Contains(t, second.Reply, "/trips/"+first.TripID)
}

func TestChat_ConcurrentConfirmationsCreateOneTrip(t *testing.T) {
	raw := `Ок {"action":"create_trip","params":{"city":"Сочи","days":3}}`
	h := newHarness(t, sochiCatalog(), idempotency.NewMemoryStore(), raw)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да"})
		}()
	}
	wg.Wait()

	h.trips.mu.Lock()
	defer h.trips.mu.Unlock()
	assert.Len(t, h.trips.trips, 1)
}

func TestChat_EventFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, `Ок {"action":"create_trip","params":{"city":"Сочи"}}`)
	h.events.err = errBoom

	resp, err := h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Да"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TripID)
}

func TestHistory(t *testing.T) {
	h := newHarness(t, sochiCatalog(), nil, "Ответ")

	turns, err := h.svc.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)

	_, err = h.svc.Chat(context.Background(), &model.ChatRequest{UserID: "u1", Message: "Вопрос"})
	require.NoError(t, err)

	turns, err = h.svc.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Вопрос", turns[0].Content)
	assert.Equal(t, "Ответ", turns[1].Content)

	_, err = h.svc.History(context.Background(), " ")
	assert.ErrorIs(t, err, ErrValidation)
}
