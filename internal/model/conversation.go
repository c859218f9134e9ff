package model

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
	TripID      string   `json:"tripId,omitempty"`
}

// HistoryResponse is returned by GET /chat-history.
type HistoryResponse struct {
	Messages []Turn `json:"messages"`
}

// ErrorResponse is the flat error body returned on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
