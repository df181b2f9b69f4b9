package state

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Message roles. The conversation only ever holds these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the conversation log. Messages are immutable
// once appended; list order is conversation order.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Cached    bool   `json:"cached,omitempty"`
	Error     bool   `json:"error,omitempty"`
}

// NewMessage creates a Message with a fresh ID and the current time.
func NewMessage(role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// GenerationConfig holds the user-tunable sampling parameters. Stored
// values may be out of range (corrupt persistence, foreign imports);
// Clamped is applied before every use.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// Clamped returns a copy with temperature in [0,2], topP in [0,1] and
// topK in [1,200].
func (g GenerationConfig) Clamped() GenerationConfig {
	out := g
	if out.Temperature < 0 {
		out.Temperature = 0
	} else if out.Temperature > 2 {
		out.Temperature = 2
	}
	if out.TopP < 0 {
		out.TopP = 0
	} else if out.TopP > 1 {
		out.TopP = 1
	}
	if out.TopK < 1 {
		out.TopK = 1
	} else if out.TopK > 200 {
		out.TopK = 200
	}
	return out
}

// Preset is a user-editable prompt shortcut. Labels are not unique and
// list order is display order.
type Preset struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// SessionState is the full persisted session: credentials, generation
// parameters, mode flags, presets, the conversation log, and the unsent
// draft. The JSON field names match the export format.
type SessionState struct {
	APIKey       string           `json:"apiKey"`
	Model        string           `json:"model"`
	Generation   GenerationConfig `json:"generation"`
	EmpathicMode bool             `json:"empathicMode"`
	QuickReplies bool             `json:"quickReplies"`
	SpeakReplies bool             `json:"speakReplies"`
	Presets      []Preset         `json:"presets"`
	Messages     []Message        `json:"chat"`
	Draft        string           `json:"input"`
}

// DefaultState returns the hardcoded fallback used on first run and
// whenever the persisted blob cannot be read.
func DefaultState() SessionState {
	return SessionState{
		Model: "gemini-2.0-flash",
		Generation: GenerationConfig{
			Temperature: 0.9,
			TopP:        0.95,
			TopK:        40,
		},
		EmpathicMode: true,
		QuickReplies: true,
		Presets: []Preset{
			{Label: "Vent", Prompt: "I just need to get something off my chest: "},
			{Label: "Check-in", Prompt: "Help me do a quick check-in on how I'm feeling today."},
			{Label: "Wind down", Prompt: "Help me wind down before sleep."},
		},
	}
}

// decodeState turns a persisted or imported blob into a SessionState.
// Decoding is lenient on purpose: any well-formed JSON object is
// accepted, and fields that fail to decode individually keep their
// default value. A blob that is not a JSON object yields the default
// state wholesale.
func decodeState(raw []byte) SessionState {
	s := DefaultState()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		slog.Warn("session state unreadable, using defaults", "error", err)
		return s
	}

	decodeField(fields, "apiKey", &s.APIKey)
	decodeField(fields, "model", &s.Model)
	decodeField(fields, "generation", &s.Generation)
	decodeField(fields, "empathicMode", &s.EmpathicMode)
	decodeField(fields, "quickReplies", &s.QuickReplies)
	decodeField(fields, "speakReplies", &s.SpeakReplies)
	decodeField(fields, "presets", &s.Presets)
	decodeField(fields, "chat", &s.Messages)
	decodeField(fields, "input", &s.Draft)

	return s
}

// decodeField unmarshals a single field into target, keeping the
// existing value when the field is absent or malformed.
func decodeField(fields map[string]json.RawMessage, key string, target any) {
	v, ok := fields[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(v, target); err != nil {
		slog.Warn("malformed session field, keeping default", "field", key, "error", err)
	}
}
