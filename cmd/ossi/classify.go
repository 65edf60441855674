package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ossi-voice/ossi/internal/conversation"
	"github.com/ossi-voice/ossi/internal/model"
	"github.com/ossi-voice/ossi/internal/orchestrator"
)

var (
	classifyContextFile string
	classifyCallID      string
	classifyJSON        bool
)

type classifyOutput struct {
	CallID         string                     `json:"call_id"`
	Degraded       bool                       `json:"degraded"`
	Classification model.IntentClassification `json:"classification"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <utterance>",
	Short: "Classify a caller utterance",
	Long:  "Classifies one utterance, optionally in the light of a YAML conversation fixture, and prints the routing decision.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyContextFile, "context", "", "YAML file with prior conversation turns")
	classifyCmd.Flags().StringVar(&classifyCallID, "call-id", "", "call ID to record (default: from context file or generated)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the classification as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conv := conversation.New(classifyCallID)
	if classifyContextFile != "" {
		conv, err = conversation.LoadFile(classifyContextFile)
		if err != nil {
			return err
		}
		if classifyCallID != "" {
			conv.CallID = classifyCallID
		}
	}

	o, _, cleanup, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	res := o.ClassifyIntent(ctx, strings.Join(args, " "), conv)

	if classifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(classifyOutput{
			CallID:         conv.CallID,
			Degraded:       res.Kind == orchestrator.Degraded,
			Classification: res.Classification,
		})
	}

	rows := classificationRows(res.Classification)
	rows = append([][]string{{"Call ID", conv.CallID}, {"Result", res.Kind.String()}}, rows...)
	fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))

	if res.Kind == orchestrator.Ok && res.Classification.Confidence < cfg.ConfidenceThreshold {
		fmt.Printf("Confidence %.2f is below threshold %.2f: confirm with the caller before routing.\n",
			res.Classification.Confidence, cfg.ConfidenceThreshold)
	}
	return nil
}
