package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxUserIDLength  = 128
	maxMessageLength = 8000
)

// ValidateUserID validates a caller-supplied user ID.
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("user_id is required")
	}
	if len(id) > maxUserIDLength {
		return errors.New("user_id exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("user_id must be valid UTF-8")
	}
	return nil
}

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}
