package model

import (
	"time"
)

// EventType identifies the kind of domain event published to NATS.
type EventType string

const (
	EventTypeTurnLogged  EventType = "turn"
	EventTypeTripCreated EventType = "created"
)

// TurnLoggedEvent is published after an assistant turn is persisted.
type TurnLoggedEvent struct {
	UserID      string      `json:"user_id"`
	TurnID      string      `json:"turn_id"`
	MessageType MessageType `json:"message_type"`
	TripID      string      `json:"trip_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TripCreatedEvent is published after a trip is materialized.
type TripCreatedEvent struct {
	UserID    string    `json:"user_id"`
	TripID    string    `json:"trip_id"`
	URL       string    `json:"url"`
	City      string    `json:"city"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}
