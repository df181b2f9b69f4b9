package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "solace",
	Short:   "An empathic chat companion for your terminal",
	Version: version,
	Long: `solace is a supportive chat companion backed by a hosted language model.

Run it without arguments to start an interactive session. Replies adapt
to the emotional tone of what you write, and slash commands like
/summarize and /reframe wrap your text in ready-made prompts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(authCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
