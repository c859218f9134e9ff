package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/middleware"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/internal/service"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
)

// ChatService is the pipeline behind the chat endpoints.
type ChatService interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
	History(ctx context.Context, userID string) ([]model.Turn, error)
}

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	chat   ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUserID(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.CanActAs(ctx, req.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	resp, err := h.chat.Chat(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, "user_id and message are required")
			return
		}
		h.requestLogger(r, req.UserID).Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /chat-history?user_id=
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("user_id")

	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.CanActAs(ctx, userID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	turns, err := h.chat.History(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		h.requestLogger(r, userID).Error("failed to load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{Messages: turns})
}

func (h *ChatHandler) requestLogger(r *http.Request, userID string) *logger.Logger {
	return h.logger.WithRequest(middleware.GetCorrelationID(r.Context()), userID)
}
