package service

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/llm"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

// ConversationStore is the append-only per-user turn log.
type ConversationStore interface {
	Append(ctx context.Context, turn *model.Turn) error
	ListByUser(ctx context.Context, userID string) ([]model.Turn, error)
}

// AttractionCatalog is the read-only attraction catalog.
type AttractionCatalog interface {
	TopRated(ctx context.Context, city string, limit int) ([]model.Attraction, error)
	FindByNames(ctx context.Context, city string, names []string) ([]model.Attraction, error)
	Cities(ctx context.Context) ([]string, error)
}

// ContextConfig tunes prompt assembly.
type ContextConfig struct {
	HistoryWindow int
	CatalogLimit  int
	DefaultCity   string
	DefaultDays   int
}

// PromptContext is the assembled model input plus the slots it was built from.
type PromptContext struct {
	Messages    []llm.ChatMessage
	Slots       TripSlots
	Attractions []model.Attraction
}

// ContextBuilder assembles the ordered message list sent to the model.
type ContextBuilder struct {
	turns   ConversationStore
	catalog AttractionCatalog
	cfg     ContextConfig
	logger  *logger.Logger
}

// NewContextBuilder creates a context builder.
func NewContextBuilder(turns ConversationStore, catalog AttractionCatalog, cfg ContextConfig, log *logger.Logger) *ContextBuilder {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.CatalogLimit <= 0 {
		cfg.CatalogLimit = 10
	}
	return &ContextBuilder{
		turns:   turns,
		catalog: catalog,
		cfg:     cfg,
		logger:  log,
	}
}

// Build returns [system, ...recent history, pending?]. History is filtered to
// user and assistant turns with non-empty content and trimmed to the last
// HistoryWindow entries. pending is appended as a user message only when it is
// not empty; callers that already logged the user turn pass "".
func (b *ContextBuilder) Build(ctx context.Context, userID, pending string) (*PromptContext, error) {
	turns, err := b.turns.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := lo.Filter(turns, func(t model.Turn, _ int) bool {
		return t.Role.Valid() && strings.TrimSpace(t.Content) != ""
	})
	if len(history) > b.cfg.HistoryWindow {
		history = history[len(history)-b.cfg.HistoryWindow:]
	}

	utterance := strings.TrimSpace(pending)
	if utterance == "" {
		if last, _, ok := lo.FindLastIndexOf(history, func(t model.Turn) bool { return t.Role == model.RoleUser }); ok {
			utterance = last.Content
		}
	}

	slots := ExtractSlots(utterance, b.knownCities(ctx), b.cfg.DefaultCity, b.cfg.DefaultDays)
	attractions := b.attractions(ctx, slots.City)

	system, err := renderSystemPrompt(slots, attractions)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleSystem), Content: system})
	messages = append(messages, lo.Map(history, func(t model.Turn, _ int) llm.ChatMessage {
		return llm.ChatMessage{Role: string(t.Role), Content: t.Content}
	})...)
	if p := strings.TrimSpace(pending); p != "" {
		messages = append(messages, llm.ChatMessage{Role: string(model.RoleUser), Content: p})
	}

	metrics.PromptTokens.Observe(float64(llm.EstimateTokens(messages)))

	return &PromptContext{
		Messages:    messages,
		Slots:       slots,
		Attractions: attractions,
	}, nil
}

func (b *ContextBuilder) knownCities(ctx context.Context) []string {
	cities, err := b.catalog.Cities(ctx)
	if err != nil {
		b.logger.Warn("failed to load catalog cities", zap.Error(err))
		return nil
	}
	return cities
}

// attractions degrades to an empty list on catalog failure; the prompt then
// says no data is available.
func (b *ContextBuilder) attractions(ctx context.Context, city string) []model.Attraction {
	attractions, err := b.catalog.TopRated(ctx, city, b.cfg.CatalogLimit)
	if err != nil {
		b.logger.Warn("failed to load attractions",
			zap.String("city", city),
			zap.Error(err),
		)
		return nil
	}
	return attractions
}

var systemPrompt = template.Must(template.New("system").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Ты — AI-ассистент по путешествиям. Помогаешь пользователю спланировать поездку и составить маршрут.
Город: {{.City}}. Длительность поездки: {{.Days}} дн.

Достопримечательности города (по рейтингу):
{{- if .Attractions}}
{{- range $i, $a := .Attractions}}
{{inc $i}}. {{$a.Name}}{{if $a.Rating}} (рейтинг {{printf "%.1f" $a.Rating}}){{end}}{{if $a.Description}}: {{$a.Description}}{{end}}
{{- end}}
{{- else}}
Нет данных о достопримечательностях.
{{- end}}

Правила:
- Отвечай кратко и дружелюбно, на языке пользователя.
- Предлагай только места из списка выше, если он не пуст.
- В конце каждого ответа добавь JSON с вариантами следующих реплик пользователя:
{"suggestions": ["...", "..."]}
- Когда пользователь подтверждает, что маршрут нужно создать, ответь коротким текстом и в конце добавь JSON:
{"action": "create_trip", "params": {"city": "{{.City}}", "days": {{.Days}}, "attractions": [{"name": "..."}]}, "suggestions": ["..."]}
- JSON всегда должен быть последним в ответе, без текста после него.`))

func renderSystemPrompt(slots TripSlots, attractions []model.Attraction) (string, error) {
	var sb strings.Builder
	err := systemPrompt.Execute(&sb, struct {
		City        string
		Days        int
		Attractions []model.Attraction
	}{
		City:        slots.City,
		Days:        slots.Days,
		Attractions: attractions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return sb.String(), nil
}
