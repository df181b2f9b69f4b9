package genai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential indicates no API key is configured. It is
	// surfaced directly to the user and never enters the conversation log.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrEmptyResponse indicates the endpoint answered 200 but returned
	// no candidate text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrRateLimited indicates HTTP 429 persisted through all retries.
	ErrRateLimited = errors.New("rate limited")
)

// RemoteError is a non-429 failure reported by the endpoint. Message
// carries the remote error text when the body contained one.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model endpoint error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("model endpoint error (HTTP %d)", e.Status)
}
