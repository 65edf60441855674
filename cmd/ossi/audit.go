package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ossi-voice/ossi/internal/audit"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse recent classifications interactively (TUI)",
	Long:  "Shows the filter picker, then the split-pane view of matching classifications and those needing review.",
	Args:  cobra.NoArgs,
	RunE:  runAuditCmd,
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 500, "number of most recent classifications to load")
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, summary, err := audit.RunLoader(audit.LoadRequest{
		StorePath: cfg.Store.Path,
		Limit:     auditLimit,
		Threshold: cfg.ConfidenceThreshold,
		Load:      st.Recent,
	})
	if errors.Is(err, audit.ErrLoadCancelled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load classifications: %w", err)
	}
	if summary.Total == 0 {
		fmt.Println("No classifications recorded yet.")
		return nil
	}

	filters := audit.Filters()
	for {
		choice, err := audit.RunFilterPicker(filters, records)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		f := filters[choice]

		wantQuit, err := audit.RunAuditTUI(f.Apply(records), f.Label, cfg.ConfidenceThreshold)
		if err != nil {
			return fmt.Errorf("audit view: %w", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
