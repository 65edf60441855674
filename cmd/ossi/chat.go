package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ossi-voice/ossi/internal/model"
	"github.com/ossi-voice/ossi/internal/orchestrator"
	"github.com/ossi-voice/ossi/internal/prompts"
)

var (
	chatSystem      string
	chatPersona     string
	chatTemperature float64
	chatMaxTokens   int
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Run a single chat completion",
	Long:  "Sends one user message (with an optional system prompt or persona) and prints the reply.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system prompt text")
	chatCmd.Flags().StringVar(&chatPersona, "persona", "", "use a catalog system prompt: receptionist or triage")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", orchestrator.DefaultTemperature, "sampling temperature")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "max tokens for the reply (default: llm.max_tokens)")
	rootCmd.AddCommand(chatCmd)
}

func personaPrompt(catalog model.PromptCatalog, persona string) (string, error) {
	switch strings.ToLower(persona) {
	case "":
		return "", nil
	case "receptionist":
		return catalog.Get(prompts.ReceptionistSystem), nil
	case "triage":
		return catalog.Get(prompts.TriageSystem), nil
	}
	return "", fmt.Errorf("unknown persona %q (want receptionist or triage)", persona)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatSystem != "" && chatPersona != "" {
		return fmt.Errorf("--system and --persona are mutually exclusive")
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o, catalog, cleanup, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	system := chatSystem
	if chatPersona != "" {
		if system, err = personaPrompt(catalog, chatPersona); err != nil {
			return err
		}
	}

	opts := orchestrator.ChatOptions{System: system, MaxTokens: chatMaxTokens}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = &chatTemperature
	}

	resp, err := o.ChatCompletion(ctx, []model.ChatMessage{
		{Role: model.RoleUser, Content: strings.Join(args, " ")},
	}, opts)
	if err != nil {
		return err
	}

	fmt.Println(resp.Content)
	logger.Debug("chat usage",
		"tokens_used", resp.TokensUsed,
		"input_tokens", resp.Metadata["input_tokens"],
		"output_tokens", resp.Metadata["output_tokens"],
		"latency_ms", resp.LatencyMS(),
	)
	return nil
}
