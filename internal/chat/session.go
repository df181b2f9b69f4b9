// Package chat runs the send loop: it composes the prompt, checks the
// response cache, calls the completion endpoint, and records the
// exchange in the conversation store. A send always ends back in the
// idle state, whether it hit the cache, succeeded, or failed.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"solace/internal/cache"
	"solace/internal/composer"
	"solace/internal/genai"
	"solace/internal/sentiment"
	"solace/internal/state"
)

var (
	// ErrBusy is returned while a previous send is still in flight; only
	// one send runs at a time.
	ErrBusy = errors.New("a send is already in progress")

	// ErrEmptyInput is returned for blank input; nothing is sent or logged.
	ErrEmptyInput = errors.New("nothing to send")
)

// Completer is the outbound completion call. Implemented by genai.Client.
type Completer interface {
	Complete(ctx context.Context, model, prompt string, p genai.Params, apiKey string) (string, error)
}

// Reply is the outcome of one send.
type Reply struct {
	Text   string
	Cached bool
	Failed bool
}

// Session orchestrates sends against one conversation store. The cache
// lives here and lasts for the process, not across restarts.
type Session struct {
	store  *state.Store
	client Completer
	cache  *cache.Cache
	busy   atomic.Bool
}

// NewSession creates a Session with an empty response cache.
func NewSession(store *state.Store, client Completer) *Session {
	return &Session{
		store:  store,
		client: client,
		cache:  cache.New(),
	}
}

// Send runs one full exchange for the given user input.
//
// The user message is appended first, then either the cached response or
// the endpoint's reply. Terminal failures are appended as error-flagged
// assistant messages and also returned, so callers can surface them
// distinctly. A missing API key fails before anything is appended and is
// never recorded in the conversation.
func (s *Session) Send(ctx context.Context, input string) (Reply, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Reply{}, ErrEmptyInput
	}

	if !s.busy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer s.busy.Store(false)

	st := s.store.State()
	if strings.TrimSpace(st.APIKey) == "" {
		return Reply{}, genai.ErrMissingCredential
	}

	s.store.Append(state.NewMessage(state.RoleUser, trimmed))

	// Cache is keyed by the raw trimmed input, not the composed prompt:
	// the same phrasing answers from cache even when tone or command
	// expansion would differ between sends.
	if v, ok := s.cache.Get(trimmed); ok {
		m := state.NewMessage(state.RoleAssistant, v)
		m.Cached = true
		s.store.Append(m)
		return Reply{Text: v, Cached: true}, nil
	}

	prompt := composer.Compose(trimmed, st.EmpathicMode)
	gen := st.Generation.Clamped()
	params := genai.Params{
		Temperature: gen.Temperature,
		TopP:        gen.TopP,
		TopK:        gen.TopK,
	}

	text, _, err := s.cache.Do(trimmed, func() (string, error) {
		return s.client.Complete(ctx, st.Model, prompt, params, st.APIKey)
	})
	if err != nil {
		slog.Warn("send failed", "error", err)
		msg := failureText(err)
		m := state.NewMessage(state.RoleAssistant, msg)
		m.Error = true
		s.store.Append(m)
		return Reply{Text: msg, Failed: true}, err
	}

	s.store.Append(state.NewMessage(state.RoleAssistant, text))
	return Reply{Text: text}, nil
}

// Busy reports whether a send is currently in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Suggestions returns quick-reply suggestions ordered by the sentiment
// of the last user message, or nil when quick replies are off.
func (s *Session) Suggestions() []string {
	st := s.store.State()
	if !st.QuickReplies {
		return nil
	}

	score := 0
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == state.RoleUser {
			score = sentiment.Score(st.Messages[i].Text)
			break
		}
	}
	return sentiment.SuggestReplies(score)
}

// failureText converts a terminal send error into the message recorded
// in the conversation, preferring the remote error text when present.
func failureText(err error) string {
	var re *genai.RemoteError
	switch {
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	case errors.Is(err, genai.ErrEmptyResponse):
		return "The model returned an empty response. Please try again."
	case errors.Is(err, genai.ErrRateLimited):
		return "The service is busy right now. Please wait a moment and try again."
	default:
		return "Something went wrong while reaching the model. Please try again."
	}
}
