package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"solace/internal/chat"
	"solace/internal/composer"
	"solace/internal/config"
	"solace/internal/genai"
	"solace/internal/speech"
	"solace/internal/state"
)

const inputPrompt = "you> "

// repl holds the state of one interactive session.
type repl struct {
	app        *app
	line       *liner.State
	speaker    *speech.Speaker
	recognizer *speech.Recognizer
}

func runChat(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	r := &repl{
		app:        a,
		speaker:    speech.NewSpeaker(a.cfg.Speech.SynthCmd),
		recognizer: speech.NewRecognizer(a.cfg.Speech.STTCmd),
	}
	defer r.speaker.Stop()

	r.line = liner.NewLiner()
	r.line.SetCtrlCAborts(true)
	defer r.line.Close()

	histPath := filepath.Join(a.cfg.Storage.DataDir, "input_history")
	if f, err := os.Open(histPath); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.OpenFile(histPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}()

	r.printWelcome()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		default:
		}

		input, err := r.readLine()
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		// The editor restored the draft; it is consumed now.
		if a.store.State().Draft != "" {
			a.store.SetDraft("")
		}

		if isLocalCommand(input) {
			quit, err := r.local(ctx, input)
			if err != nil {
				printError("%v", err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.send(ctx, input)
	}
}

// readLine prompts for input, pre-filling the editor with any unsent
// draft from the previous session.
func (r *repl) readLine() (string, error) {
	if d := r.app.store.State().Draft; d != "" {
		return r.line.PromptWithSuggestion(inputPrompt, d, len(d))
	}
	return r.line.Prompt(inputPrompt)
}

// send routes one utterance through the session and prints the outcome.
func (r *repl) send(ctx context.Context, input string) {
	reply, err := r.app.session.Send(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, genai.ErrMissingCredential):
			printWarning("No API key configured. %s", config.APIKeyHint())
			// Keep the text around so it reappears at the next prompt.
			r.app.store.SetDraft(input)
			return
		case errors.Is(err, chat.ErrEmptyInput), errors.Is(err, chat.ErrBusy):
			return
		}
	}

	if reply.Failed {
		fmt.Printf("%s %s\n", replyLabel(true), reply.Text)
		return
	}
	if reply.Text == "" {
		return
	}

	marker := ""
	if reply.Cached {
		marker = colorize(colorYellow, " (cached)")
	}
	fmt.Printf("%s %s%s\n", replyLabel(false), reply.Text, marker)

	if r.app.store.State().SpeakReplies {
		r.speaker.Speak(reply.Text)
	}

	if sugg := r.app.session.Suggestions(); len(sugg) > 0 {
		fmt.Printf("  %s %s\n", colorize(colorBold, "try:"), strings.Join(sugg, " | "))
	}
}

// localCommands are handled by the REPL itself. Anything else starting
// with a slash falls through to the prompt composer, which knows its own
// commands (/summarize and friends) and leaves the rest untouched.
var localCommands = map[string]bool{
	"/help": true, "/h": true,
	"/quit": true, "/q": true, "/exit": true,
	"/clear":    true,
	"/export":   true,
	"/model":    true,
	"/models":   true,
	"/empathic": true,
	"/replies":  true,
	"/speak":    true,
	"/voice":    true,
	"/presets":  true,
	"/preset":   true,
	"/history":  true,
}

func isLocalCommand(input string) bool {
	if !strings.HasPrefix(input, "/") {
		return false
	}
	cmd, _, _ := strings.Cut(input, " ")
	return localCommands[strings.ToLower(cmd)]
}

// local executes a REPL command. Returns true when the session should end.
func (r *repl) local(ctx context.Context, input string) (bool, error) {
	cmd, rest, _ := strings.Cut(input, " ")
	arg := strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h":
		r.printHelp()

	case "/clear":
		answer, err := r.line.Prompt("Clear the conversation? [y/N] ")
		if err != nil || !confirmsClear(answer) {
			break
		}
		r.app.store.Clear()
		printSuccess("Conversation cleared")

	case "/export":
		data, name, err := r.app.store.Export()
		if err != nil {
			return false, err
		}
		path := name
		if arg != "" {
			path = arg
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return false, fmt.Errorf("writing export: %w", err)
		}
		printSuccess("Session exported to %s", path)

	case "/model":
		if arg == "" {
			printStatus("Model", "%s", r.app.store.State().Model)
			break
		}
		r.app.store.SetModel(arg)
		printSuccess("Switched to model %s", arg)

	case "/models":
		key := r.app.store.State().APIKey
		if key == "" {
			return false, fmt.Errorf("no API key configured. %s", config.APIKeyHint())
		}
		names, err := r.app.client.ListModels(ctx, key)
		if err != nil {
			return false, err
		}
		for _, n := range names {
			fmt.Printf("  %s\n", n)
		}

	case "/empathic":
		on := parseToggle(arg, r.app.store.State().EmpathicMode)
		r.app.store.SetEmpathicMode(on)
		printStatus("Empathic mode", "%s", onOff(on))

	case "/replies":
		on := parseToggle(arg, r.app.store.State().QuickReplies)
		r.app.store.SetQuickReplies(on)
		printStatus("Quick replies", "%s", onOff(on))

	case "/speak":
		on := parseToggle(arg, r.app.store.State().SpeakReplies)
		r.app.store.SetSpeakReplies(on)
		if !on {
			r.speaker.Stop()
		}
		printStatus("Spoken replies", "%s", onOff(on))

	case "/voice":
		if !r.recognizer.Available() {
			printWarning("No speech recognizer configured. Set speech.stt_cmd to a command that prints a transcript.")
			break
		}
		printStep("Listening...")
		transcript, err := r.recognizer.Listen(ctx)
		if err != nil {
			return false, err
		}
		if transcript == "" {
			printWarning("Heard nothing")
			break
		}
		fmt.Printf("%s%s\n", inputPrompt, transcript)
		r.send(ctx, transcript)

	case "/presets":
		presets := r.app.store.State().Presets
		if len(presets) == 0 {
			fmt.Println("No presets saved.")
			break
		}
		for i, p := range presets {
			fmt.Printf("  %d. %s  %s\n", i+1, colorize(colorBold, p.Label), truncate(p.Prompt, 60))
		}

	case "/preset":
		presets := r.app.store.State().Presets
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(presets) {
			return false, fmt.Errorf("usage: /preset <1-%d>", len(presets))
		}
		p := presets[n-1]
		fmt.Printf("%s%s\n", inputPrompt, p.Prompt)
		r.send(ctx, p.Prompt)

	case "/history":
		printMessages(r.app.store.Messages(), 0)
	}

	return false, nil
}

// confirmsClear reports whether a prompt answer authorizes clearing the
// conversation; anything but an explicit y is a refusal.
func confirmsClear(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// parseToggle interprets a toggle argument: "on"/"off" set the value,
// anything else (including no argument) flips it.
func parseToggle(arg string, current bool) bool {
	switch strings.ToLower(arg) {
	case "on", "true", "yes":
		return true
	case "off", "false", "no":
		return false
	default:
		return !current
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// printMessages renders the conversation log; limit 0 means everything.
func printMessages(msgs []state.Message, limit int) {
	if len(msgs) == 0 {
		fmt.Println("No messages yet.")
		return
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	for _, m := range msgs {
		text := strings.ReplaceAll(m.Text, "\n", " ")
		fmt.Printf("  %s  %s\n", roleLabel(m), truncate(text, 100))
	}
}

func (r *repl) printWelcome() {
	st := r.app.store.State()
	fmt.Printf("%s %s\n", colorize(colorBold, "solace"), version)
	printStatus("Model", "%s", st.Model)
	printStatus("Empathic mode", "%s", onOff(st.EmpathicMode))
	if st.APIKey == "" {
		printWarning("No API key configured yet. %s", config.APIKeyHint())
	}
	fmt.Println("Type a message and press Enter. /help lists commands, /quit exits.")
	fmt.Println()
}

func (r *repl) printHelp() {
	fmt.Println()
	fmt.Println(colorize(colorBold, "Prompt commands") + " (wrap your text in a ready-made prompt):")
	for _, c := range composer.Commands() {
		fmt.Printf("  /%s\n", c)
	}
	fmt.Println()
	fmt.Println(colorize(colorBold, "Session commands") + ":")
	help := []struct{ cmd, desc string }{
		{"/clear", "clear the conversation (asks first)"},
		{"/export [path]", "write the session snapshot to a JSON file"},
		{"/model [name]", "show or switch the model"},
		{"/models", "list models available to your key"},
		{"/empathic [on|off]", "toggle tone-aware structured replies"},
		{"/replies [on|off]", "toggle quick-reply suggestions"},
		{"/speak [on|off]", "toggle spoken replies"},
		{"/voice", "capture one message by voice"},
		{"/presets", "list saved preset prompts"},
		{"/preset <n>", "send a saved preset"},
		{"/history", "show the conversation so far"},
		{"/quit", "exit"},
	}
	for _, h := range help {
		fmt.Printf("  %-20s %s\n", h.cmd, h.desc)
	}
	fmt.Println()
}
