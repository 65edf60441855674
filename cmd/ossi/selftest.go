package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ossi-voice/ossi/internal/conversation"
	"github.com/ossi-voice/ossi/internal/orchestrator"
)

// selftestUtterances cover each routing outcome at least once.
var selftestUtterances = []string{
	"I need to schedule an appointment with Dr. Smith",
	"I've had a headache for 3 days",
	"I'm having chest pain",
	"What are your clinic hours?",
	"I need to speak with someone right now",
}

var selftestConcurrency int

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Classify canned utterances and print usage",
	Long:  "Runs a fixed set of utterances through one shared orchestrator concurrently, prints each routing decision and the accumulated usage.",
	Args:  cobra.NoArgs,
	RunE:  runSelftest,
}

func init() {
	selftestCmd.Flags().IntVar(&selftestConcurrency, "concurrency", 2, "number of classifications in flight")
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o, _, cleanup, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	results := make([]orchestrator.Result, len(selftestUtterances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(selftestConcurrency, 1))
	for i, utterance := range selftestUtterances {
		g.Go(func() error {
			results[i] = o.ClassifyIntent(gctx, utterance, conversation.New(""))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	degraded := 0
	for i, res := range results {
		c := res.Classification
		if res.Kind == orchestrator.Degraded {
			degraded++
		}
		flag := ""
		if res.Kind == orchestrator.Ok && c.Confidence < cfg.ConfidenceThreshold {
			flag = "low"
		}
		rows = append(rows, []string{
			selftestUtterances[i],
			string(c.Intent),
			fmt.Sprintf("%.2f", c.Confidence),
			flag,
			res.Kind.String(),
			c.NextAction,
		})
	}

	fmt.Println(renderTable(
		[]string{"Utterance", "Intent", "Confidence", "Flag", "Result", "Next Action"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Println(usageTable(o.Stats()))

	if degraded == len(results) {
		return fmt.Errorf("all %d classifications degraded; check credentials and connectivity", degraded)
	}
	return nil
}
