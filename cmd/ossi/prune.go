package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old classification records",
	Long:  "Removes classification log entries older than store.retention (or --older-than).",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "override store.retention")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	retention := cfg.Store.Retention
	if pruneOlderThan > 0 {
		retention = pruneOlderThan
	}

	removed, err := st.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	remaining, err := st.Count(ctx)
	if err != nil {
		return err
	}
	logger.Debug("classification log pruned", "retention", retention.String(), "removed", removed)

	fmt.Println(renderTable(
		[]string{"Retention", "Removed", "Remaining"},
		[][]string{{retention.String(), strconv.FormatInt(removed, 10), strconv.Itoa(remaining)}},
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	return nil
}
