package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"solace/internal/config"
	"solace/internal/genai"
	"solace/internal/state"
)

// --- say ---

var sayCmd = &cobra.Command{
	Use:   "say <message>",
	Short: "Send a single message and print the reply",
	Long: `Send a single message through the persisted session and print the reply.

The exchange is recorded in the conversation like any interactive turn.

Examples:
  solace say "I had a rough day"
  solace say --model gemini-2.5-pro "/summarize long week, shipped the release, slept badly"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if model, _ := cmd.Flags().GetString("model"); model != "" {
			a.store.SetModel(model)
		}

		reply, err := a.session.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil && !reply.Failed {
			if errors.Is(err, genai.ErrMissingCredential) {
				return fmt.Errorf("no API key configured. %s", config.APIKeyHint())
			}
			return err
		}
		if reply.Failed {
			printError("%s", reply.Text)
			return errors.New("send failed")
		}

		fmt.Println(reply.Text)
		if reply.Cached {
			printStatus("Source", "cache")
		}
		return nil
	},
}

func init() {
	sayCmd.Flags().String("model", "", "model to use for this and future sends")
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available to your API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		key := a.store.State().APIKey
		if key == "" {
			return fmt.Errorf("no API key configured. %s", config.APIKeyHint())
		}

		names, err := a.client.ListModels(cmd.Context(), key)
		if err != nil {
			return err
		}

		current := a.store.State().Model
		for _, n := range names {
			if n == current {
				fmt.Printf("  %s %s\n", colorize(colorGreen, "*"), n)
				continue
			}
			fmt.Printf("    %s\n", n)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Revert a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

// --- presets ---

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved preset prompts",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		presets := a.store.State().Presets
		if len(presets) == 0 {
			fmt.Println("No presets saved.")
			return nil
		}
		for i, p := range presets {
			fmt.Printf("  %d. %s  %s\n", i+1, colorize(colorBold, p.Label), truncate(p.Prompt, 60))
		}
		return nil
	},
}

var presetsAddCmd = &cobra.Command{
	Use:   "add <label> <prompt>",
	Short: "Save a new preset prompt",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		label := args[0]
		prompt := strings.Join(args[1:], " ")
		a.store.AddPreset(state.Preset{Label: label, Prompt: prompt})

		printSuccess("Added preset %q", label)
		return nil
	},
}

var presetsRemoveCmd = &cobra.Command{
	Use:   "remove <number>",
	Short: "Remove a preset by its list number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid preset number %q", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.RemovePreset(n - 1); err != nil {
			return err
		}
		printSuccess("Removed preset %d", n)
		return nil
	},
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsAddCmd)
	presetsCmd.AddCommand(presetsRemoveCmd)
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export, import, or purge the stored session",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the session snapshot to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		data, name, err := a.store.Export()
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = name
		}
		if path == "-" {
			_, err := os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		printSuccess("Session exported to %s", path)
		return nil
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the session with a previously exported snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import: %w", err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Replace(raw); err != nil {
			if errors.Is(err, state.ErrInvalidImport) {
				return fmt.Errorf("%s is not a session export: %w", args[0], err)
			}
			return err
		}

		printSuccess("Session imported from %s", args[0])
		return nil
	},
}

var dataPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Reset the session to a fresh state",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete the conversation, presets, and settings. Use --confirm to proceed.")
			return nil
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Resetting session...")
		fresh, err := json.Marshal(state.DefaultState())
		if err != nil {
			return err
		}
		if err := a.store.Replace(fresh); err != nil {
			return err
		}

		printSuccess("Session purged")
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: timestamped name, '-' for stdout)")
	dataPurgeCmd.Flags().Bool("confirm", false, "confirm the purge")
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataPurgeCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		printMessages(a.store.Messages(), limit)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of messages to show")
}

// --- auth ---

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API key",
}

var authSetKeyCmd = &cobra.Command{
	Use:   "set-key <key>",
	Short: "Store the API key in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.StoreAPIKey(args[0]); err != nil {
			return fmt.Errorf("storing API key: %w", err)
		}
		printSuccess("API key stored")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an API key is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.API.Key != "" {
			printStatus("API key", "configured")
			return nil
		}

		// The persisted session may still carry one.
		store, err := state.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		if store.State().APIKey != "" {
			printStatus("API key", "configured (session)")
			return nil
		}
		printStatus("API key", "not configured")
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSetKeyCmd)
	authCmd.AddCommand(authStatusCmd)
}
