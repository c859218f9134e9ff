package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/capitalize-ai/trip-assistant/internal/model"
)

// TurnRepository stores the append-only conversation log.
type TurnRepository struct {
	db *sqlx.DB
}

// NewTurnRepository creates a new turn repository.
func NewTurnRepository(db *sqlx.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// Append inserts a turn, assigning its ID and timestamp when unset.
func (r *TurnRepository) Append(ctx context.Context, turn *model.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.Must(uuid.NewV7()).String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if turn.MessageType == "" {
		turn.MessageType = model.MessageTypeText
	}

	query := r.db.Rebind(`INSERT INTO chat_history (id, user_id, role, message, message_type, raw_model_output, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		turn.ID, turn.UserID, string(turn.Role), turn.Content, string(turn.MessageType), turn.RawModelOutput, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// ListByUser returns every turn of a user ordered by creation time.
// NULL roles and messages are returned as empty strings.
func (r *TurnRepository) ListByUser(ctx context.Context, userID string) ([]model.Turn, error) {
	turns := []model.Turn{}
	query := r.db.Rebind(`SELECT id, user_id, COALESCE(role, '') AS role, COALESCE(message, '') AS message,
			message_type, raw_model_output, created_at
		FROM chat_history
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`)
	if err := r.db.SelectContext(ctx, &turns, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return turns, nil
}
