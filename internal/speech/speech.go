// Package speech drives the voice peripherals through external
// commands: a synthesizer for spoken replies and an optional recognizer
// for voice input. Both are best-effort; a missing or failing command
// never fails a chat operation.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// ErrNoRecognizer is returned when no speech-to-text command is
// configured.
var ErrNoRecognizer = errors.New("no speech recognizer configured")

// Speaker speaks text by spawning an external synthesizer command with
// the utterance as its final argument. Utterances are fire-and-forget;
// Stop kills whatever is currently speaking.
type Speaker struct {
	command string

	mu      sync.Mutex
	current *exec.Cmd
}

// NewSpeaker creates a Speaker using the given command line, falling
// back to the platform default ("say" on macOS) when it is empty.
func NewSpeaker(command string) *Speaker {
	if strings.TrimSpace(command) == "" {
		command = defaultSynthCommand
	}
	return &Speaker{command: command}
}

// Speak starts speaking text and returns immediately. Failures are
// logged and otherwise ignored.
func (s *Speaker) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" || s.command == "" {
		return
	}

	parts := strings.Fields(s.command)
	cmd := exec.Command(parts[0], append(parts[1:], text)...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if err := cmd.Start(); err != nil {
		slog.Warn("speech synthesis unavailable", "command", parts[0], "error", err)
		return
	}
	s.current = cmd

	// Reap the process; nobody waits on the result.
	go func() {
		cmd.Wait()
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()
}

// Stop interrupts the current utterance, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if s.current != nil && s.current.Process != nil {
		s.current.Process.Kill()
		s.current = nil
	}
}

// Recognizer captures one transcript per invocation from an external
// speech-to-text command: whatever the command prints to stdout is the
// transcript.
type Recognizer struct {
	command string
}

// NewRecognizer creates a Recognizer for the given command line. An
// empty command means voice input is not configured.
func NewRecognizer(command string) *Recognizer {
	return &Recognizer{command: strings.TrimSpace(command)}
}

// Available reports whether a recognizer command is configured.
func (r *Recognizer) Available() bool {
	return r.command != ""
}

// Listen runs the recognizer once and returns the captured transcript.
// A recognizer that fails or hears nothing yields an empty transcript,
// mirroring a voice capture that silently ends.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	if r.command == "" {
		return "", ErrNoRecognizer
	}

	parts := strings.Fields(r.command)
	out, err := exec.CommandContext(ctx, parts[0], parts[1:]...).Output()
	if err != nil {
		slog.Warn("speech recognition failed", "command", parts[0], "error", err)
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}
