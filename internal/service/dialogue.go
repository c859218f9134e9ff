package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/llm"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

// DialogueConfig holds the model call parameters.
type DialogueConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DialogueEngine turns a message list into raw model text.
type DialogueEngine struct {
	client llm.Client
	cfg    DialogueConfig
	logger *logger.Logger
}

// NewDialogueEngine creates a dialogue engine backed by client.
func NewDialogueEngine(client llm.Client, cfg DialogueConfig, log *logger.Logger) *DialogueEngine {
	return &DialogueEngine{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

// Generate returns the model completion for messages. Any provider error, a
// timeout or an empty completion is reported as ErrGenerationFailed.
func (e *DialogueEngine) Generate(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	model := e.cfg.Model
	if model == "" {
		model = e.client.Name()
	}

	start := time.Now()
	resp, err := e.client.Complete(ctx, &llm.CompletionRequest{
		Model:       e.cfg.Model,
		Messages:    messages,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordLLMCompletion(model, "error", duration, 0, 0)
		e.logger.Error("completion failed",
			zap.String("provider", e.client.Name()),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if resp.Model != "" {
		model = resp.Model
	}
	metrics.RecordLLMCompletion(model, "success", duration, resp.TokensIn, resp.TokensOut)

	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	e.logger.Debug("completion received",
		zap.String("model", model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.String("stop_reason", resp.StopReason),
	)

	return resp.Content, nil
}
