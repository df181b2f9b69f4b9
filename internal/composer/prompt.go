// Package composer assembles the prompt sent to the model: it expands
// slash commands into instruction templates, then wraps the result with
// the system preamble and a tone hint derived from the sentiment score.
package composer

import (
	"strings"

	"solace/internal/sentiment"
)

// preamble instructs the model to behave as an empathic, non-clinical
// listener. It is prepended to every prompt.
const preamble = "You are an empathic, supportive listener. You are not a " +
	"clinician and you do not diagnose; you listen, validate, and offer " +
	"gentle, practical perspective. Keep responses concise and warm."

// structureInstruction is appended only when empathic mode is on.
const structureInstruction = "Structure your response in 4 steps: " +
	"1) acknowledge the feeling, 2) reflect back what you heard, " +
	"3) offer one kind, realistic perspective, 4) suggest one small next step."

// commandTemplates maps a slash command token to the instruction that
// replaces it. The remainder of the input is appended after the template.
var commandTemplates = map[string]string{
	"summarize": "Summarize this in 3 bullets and 1 next step.",
	"reframe":   "Help me reframe this thought in a kinder, more realistic way.",
	"coach":     "Act as a supportive coach and give me one practical step forward.",
	"journal":   "Turn this into a short reflective journal entry in my voice.",
}

// RouteSlashCommand expands a recognized "/command body" input into its
// instruction template followed by the body. Input that does not start
// with "/", or whose command token is unrecognized, is returned unchanged.
func RouteSlashCommand(input string) string {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return input
	}

	token, body, _ := strings.Cut(trimmed[1:], " ")
	tmpl, ok := commandTemplates[strings.ToLower(token)]
	if !ok {
		// Unknown commands pass through silently.
		return input
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return tmpl
	}
	return tmpl + "\n\n" + body
}

// Commands returns the recognized slash command tokens, for help output.
func Commands() []string {
	return []string{"summarize", "reframe", "coach", "journal"}
}

// Compose builds the full model prompt for one user input. The expanded
// user text is always the final segment of the output, so the model sees
// it last.
func Compose(input string, empathic bool) string {
	expanded := RouteSlashCommand(input)
	tone := sentiment.Tone(sentiment.Score(expanded))

	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\nRespond in a ")
	sb.WriteString(tone)
	sb.WriteString(" tone.")
	if empathic {
		sb.WriteString("\n\n")
		sb.WriteString(structureInstruction)
	}
	sb.WriteString("\n\n")
	sb.WriteString(expanded)
	return sb.String()
}
