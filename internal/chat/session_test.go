package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solace/internal/genai"
	"solace/internal/state"
)

// fakeCompleter counts calls and returns a scripted response or error.
type fakeCompleter struct {
	calls atomic.Int32
	reply string
	err   error

	mu         sync.Mutex
	lastPrompt string
	block      chan struct{} // when set, Complete waits until closed
}

func (f *fakeCompleter) Complete(ctx context.Context, model, prompt string, p genai.Params, apiKey string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastPrompt = prompt
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestSession(t *testing.T, f *fakeCompleter) *Session {
	t.Helper()
	store, err := state.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	store.SetAPIKey("test-key")
	return NewSession(store, f)
}

func TestSend_Success(t *testing.T) {
	f := &fakeCompleter{reply: "I'm here with you."}
	s := newTestSession(t, f)

	r, err := s.Send(context.Background(), "  I had a rough day  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if r.Text != "I'm here with you." || r.Cached || r.Failed {
		t.Errorf("Reply = %+v", r)
	}

	msgs := s.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != state.RoleUser || msgs[0].Text != "I had a rough day" {
		t.Errorf("user message = %+v (input should be trimmed)", msgs[0])
	}
	if msgs[1].Role != state.RoleAssistant || msgs[1].Text != "I'm here with you." {
		t.Errorf("assistant message = %+v", msgs[1])
	}

	// The completer sees the composed prompt with the user text last.
	if !strings.HasSuffix(f.lastPrompt, "I had a rough day") {
		t.Errorf("prompt should end with the user text: %q", f.lastPrompt)
	}
}

func TestSend_CacheIdempotence(t *testing.T) {
	f := &fakeCompleter{reply: "same answer"}
	s := newTestSession(t, f)

	if _, err := s.Send(context.Background(), "hello there"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	r, err := s.Send(context.Background(), "  hello there ")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}

	if !r.Cached {
		t.Error("second identical send should be served from cache")
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("network called %d times, want 1", got)
	}

	msgs := s.store.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if !msgs[3].Cached {
		t.Error("cached reply should be flagged as cached in the log")
	}
	if msgs[1].Cached {
		t.Error("first reply must not be flagged as cached")
	}
}

func TestSend_EmptyInput(t *testing.T) {
	f := &fakeCompleter{reply: "x"}
	s := newTestSession(t, f)

	if _, err := s.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(s.store.Messages()) != 0 {
		t.Error("blank input must not touch the log")
	}
}

func TestSend_MissingCredential(t *testing.T) {
	f := &fakeCompleter{reply: "x"}
	s := newTestSession(t, f)
	s.store.SetAPIKey("")

	_, err := s.Send(context.Background(), "hello")
	if !errors.Is(err, genai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(s.store.Messages()) != 0 {
		t.Error("a credential failure must never enter the conversation log")
	}
	if f.calls.Load() != 0 {
		t.Error("no network attempt without a credential")
	}
}

func TestSend_TerminalFailureRecorded(t *testing.T) {
	f := &fakeCompleter{err: &genai.RemoteError{Status: 400, Message: "invalid argument"}}
	s := newTestSession(t, f)

	r, err := s.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !r.Failed {
		t.Error("reply should be marked failed")
	}

	msgs := s.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user + error message, got %d", len(msgs))
	}
	if !msgs[1].Error || msgs[1].Role != state.RoleAssistant {
		t.Errorf("failure should be an error-flagged assistant message: %+v", msgs[1])
	}
	if msgs[1].Text != "invalid argument" {
		t.Errorf("remote error message should be used verbatim, got %q", msgs[1].Text)
	}
}

func TestSend_FailureNotCached(t *testing.T) {
	f := &fakeCompleter{err: genai.ErrEmptyResponse}
	s := newTestSession(t, f)

	s.Send(context.Background(), "hello")

	// Recover and retry the same input: it must hit the network again.
	f.err = nil
	f.reply = "better now"
	r, err := s.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("retry Send: %v", err)
	}
	if r.Cached {
		t.Error("a failed send must not populate the cache")
	}
	if f.calls.Load() != 2 {
		t.Errorf("network called %d times, want 2", f.calls.Load())
	}
}

func TestSend_GenericFallbackMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty response", genai.ErrEmptyResponse, "empty response"},
		{"rate limited", genai.ErrRateLimited, "busy right now"},
		{"transport", errors.New("dial tcp: connection refused"), "went wrong"},
		{"remote without message", &genai.RemoteError{Status: 500}, "went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCompleter{err: tt.err}
			s := newTestSession(t, f)
			r, _ := s.Send(context.Background(), "hello")
			if !strings.Contains(r.Text, tt.want) {
				t.Errorf("failure text %q should contain %q", r.Text, tt.want)
			}
		})
	}
}

func TestSend_BusyRejectsConcurrent(t *testing.T) {
	f := &fakeCompleter{reply: "slow", block: make(chan struct{})}
	s := newTestSession(t, f)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Send(context.Background(), "first")
	}()

	// Wait until the first send is inside the completer.
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent send should return ErrBusy, got %v", err)
	}

	close(f.block)
	<-done

	if s.Busy() {
		t.Error("session should be idle again after the send completes")
	}
}

func TestSend_EmpathicModeShapesPrompt(t *testing.T) {
	f := &fakeCompleter{reply: "ok"}
	s := newTestSession(t, f)

	s.store.SetEmpathicMode(false)
	s.Send(context.Background(), "first message")
	if strings.Contains(f.lastPrompt, "4 steps") {
		t.Error("structure instruction present with empathic mode off")
	}

	s.store.SetEmpathicMode(true)
	s.Send(context.Background(), "second message")
	if !strings.Contains(f.lastPrompt, "4 steps") {
		t.Error("structure instruction missing with empathic mode on")
	}
}

func TestSuggestions(t *testing.T) {
	f := &fakeCompleter{reply: "ok"}
	s := newTestSession(t, f)

	s.store.SetQuickReplies(false)
	if got := s.Suggestions(); got != nil {
		t.Errorf("suggestions should be nil when disabled, got %v", got)
	}

	s.store.SetQuickReplies(true)
	s.Send(context.Background(), "I feel so anxious and worried")
	got := s.Suggestions()
	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	if !strings.Contains(got[0], "hard") {
		t.Errorf("distressed input should lead with a comfort reply, got %v", got)
	}
}
