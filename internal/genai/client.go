// Package genai talks to the hosted generative-language endpoint. One
// request per send, one candidate per request; rate limiting is retried
// internally, every other failure is terminal for the current send.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 60 * time.Second

	// maxAttempts bounds the 429 retry loop: one initial attempt plus at
	// most two delayed retries.
	maxAttempts = 3

	// retryBaseDelay is the first backoff; it doubles on each retry
	// (1200ms, then 2400ms).
	retryBaseDelay = 1200 * time.Millisecond
)

// Client issues generateContent requests against one endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryBase  time.Duration
}

// New creates a Client for the default endpoint.
func New() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryBase:  retryBaseDelay,
	}
}

// NewWithBaseURL creates a Client pointing at a custom base URL (for
// testing, or a self-hosted compatible endpoint).
func NewWithBaseURL(baseURL string) *Client {
	c := New()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// SetTimeout overrides the per-request HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Complete sends a single-turn prompt to the given model and returns the
// response text.
//
// An empty apiKey fails fast with ErrMissingCredential before any
// network I/O. HTTP 429 is retried with exponential backoff up to
// maxAttempts total attempts; every other failure is returned
// immediately, carrying the remote error message when one was present.
func (c *Client) Complete(ctx context.Context, model, prompt string, p Params, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingCredential
	}

	clamped := p.Clamped()
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:    clamped.Temperature,
			TopP:           clamped.TopP,
			TopK:           clamped.TopK,
			CandidateCount: 1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := range maxAttempts {
		text, err := c.doGenerate(ctx, model, body, apiKey)
		if err == nil {
			return text, nil
		}

		if !isRateLimit(err) {
			return "", err
		}

		lastErr = err
		if attempt < maxAttempts-1 {
			backoff := c.retryBase << attempt
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrRateLimited, maxAttempts, lastErr)
}

// rateLimitError marks an HTTP 429 so the retry loop can recognize it.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

func isRateLimit(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (c *Client) doGenerate(ctx context.Context, model string, body []byte, apiKey string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", &rateLimitError{status: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &RemoteError{Status: resp.StatusCode, Message: remoteMessage(respBody)}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	text := extractText(result)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// extractText reads the response text from its fixed nested path.
// A missing path yields "" and is treated as an empty response.
func extractText(r generateResponse) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// remoteMessage pulls error.message out of an error body, if present.
func remoteMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return ""
	}
	return er.Error.Message
}

// ListModels returns the model names available at the endpoint.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &RemoteError{Status: resp.StatusCode, Message: remoteMessage(respBody)}
	}

	var list modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}

	names := make([]string, len(list.Models))
	for i, m := range list.Models {
		names[i] = strings.TrimPrefix(m.Name, "models/")
	}
	return names, nil
}
