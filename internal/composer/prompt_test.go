package composer

import (
	"strings"
	"testing"
)

func TestRouteSlashCommand_Known(t *testing.T) {
	out := RouteSlashCommand("/summarize I am stressed")
	if !strings.HasPrefix(out, "Summarize this in 3 bullets and 1 next step.") {
		t.Errorf("expected template prefix, got %q", out)
	}
	if !strings.Contains(out, "I am stressed") {
		t.Errorf("expected body to be carried over, got %q", out)
	}
}

func TestRouteSlashCommand_Unknown(t *testing.T) {
	in := "/foo bar"
	if out := RouteSlashCommand(in); out != in {
		t.Errorf("unknown command should pass through: got %q, want %q", out, in)
	}
}

func TestRouteSlashCommand_NotACommand(t *testing.T) {
	in := "just a plain message"
	if out := RouteSlashCommand(in); out != in {
		t.Errorf("plain text should pass through: got %q, want %q", out, in)
	}
}

func TestRouteSlashCommand_NoBody(t *testing.T) {
	out := RouteSlashCommand("/journal")
	if out != commandTemplates["journal"] {
		t.Errorf("bodyless command should return bare template, got %q", out)
	}
}

func TestRouteSlashCommand_AllCommands(t *testing.T) {
	for _, cmd := range Commands() {
		out := RouteSlashCommand("/" + cmd + " something on my mind")
		if out == "/"+cmd+" something on my mind" {
			t.Errorf("command %q was not expanded", cmd)
		}
		if !strings.Contains(out, "something on my mind") {
			t.Errorf("command %q dropped the body: %q", cmd, out)
		}
	}
}

func TestCompose_UserTextIsSuffix(t *testing.T) {
	in := "I had a rough day"
	out := Compose(in, false)
	if !strings.HasSuffix(out, in) {
		t.Errorf("composed prompt should end with the user text, got %q", out)
	}
}

func TestCompose_ExpandedTextIsSuffix(t *testing.T) {
	out := Compose("/summarize long week", false)
	if !strings.HasSuffix(out, RouteSlashCommand("/summarize long week")) {
		t.Errorf("composed prompt should end with the expanded text, got %q", out)
	}
}

func TestCompose_ToneSelection(t *testing.T) {
	neg := Compose("I feel hopeless", false)
	if !strings.Contains(neg, "gentle, validating, non-judgmental") {
		t.Errorf("negative input should get the gentle tone, got %q", neg)
	}

	pos := Compose("I feel hopeful", false)
	if !strings.Contains(pos, "encouraging, balanced") {
		t.Errorf("positive input should get the encouraging tone, got %q", pos)
	}

	zero := Compose("what time is it", false)
	if !strings.Contains(zero, "neutral, respectful") {
		t.Errorf("neutral input should get the neutral tone, got %q", zero)
	}
}

func TestCompose_EmpathicModeAppendsStructure(t *testing.T) {
	off := Compose("hello", false)
	if strings.Contains(off, "4 steps") {
		t.Error("structure instruction should be absent with empathic mode off")
	}

	on := Compose("hello", true)
	if !strings.Contains(on, "4 steps") {
		t.Error("structure instruction should be present with empathic mode on")
	}
	// The user text must still come last.
	if !strings.HasSuffix(on, "hello") {
		t.Errorf("user text must remain the suffix, got %q", on)
	}
}

func TestCompose_AlwaysHasPreamble(t *testing.T) {
	out := Compose("anything", false)
	if !strings.HasPrefix(out, preamble) {
		t.Errorf("composed prompt should start with the preamble, got %q", out)
	}
}
