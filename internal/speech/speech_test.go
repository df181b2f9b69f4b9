package speech

import (
	"context"
	"errors"
	"testing"
)

func TestRecognizer_Unconfigured(t *testing.T) {
	r := NewRecognizer("")
	if r.Available() {
		t.Error("empty command should not be available")
	}
	if _, err := r.Listen(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("expected ErrNoRecognizer, got %v", err)
	}
}

func TestRecognizer_CapturesStdout(t *testing.T) {
	r := NewRecognizer("echo hello from voice")
	if !r.Available() {
		t.Fatal("configured recognizer should be available")
	}

	got, err := r.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if got != "hello from voice" {
		t.Errorf("transcript = %q", got)
	}
}

func TestRecognizer_FailureIsSilent(t *testing.T) {
	r := NewRecognizer("/definitely/not/a/command")
	got, err := r.Listen(context.Background())
	if err != nil {
		t.Errorf("recognizer failure should be silent, got %v", err)
	}
	if got != "" {
		t.Errorf("failed capture should yield an empty transcript, got %q", got)
	}
}

func TestSpeaker_MissingCommandIsSilent(t *testing.T) {
	s := NewSpeaker("/definitely/not/a/command")
	// Must not panic or block.
	s.Speak("hello")
	s.Stop()
}

func TestSpeaker_IgnoresEmptyText(t *testing.T) {
	s := NewSpeaker("echo")
	s.Speak("   ")
	s.Stop()
}
