// Package service implements the chat-to-trip pipeline: context building,
// generation, action extraction, trip materialization and turn logging.
package service

import "errors"

var (
	// ErrValidation marks a request missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrGenerationFailed wraps any error returned by the model call.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoAttractionsAvailable means an action resolved to zero points.
	ErrNoAttractionsAvailable = errors.New("no attractions available")

	// ErrTripGenerationFailed wraps catalog and store failures during materialization.
	ErrTripGenerationFailed = errors.New("trip generation failed")

	// ErrActionInProgress means the same action is still being executed by another request.
	ErrActionInProgress = errors.New("action already in progress")
)
