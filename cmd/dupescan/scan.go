package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dupescan/internal/pipeline"
	"dupescan/internal/types"
)

var (
	scanAction   string
	scanMaxFiles int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the source and file metadata into partitions",
	Long: `Scan the configured source repository, run ingest-time duplicate
detection on every record, and append the survivors to the partitioned
metadata store.

The duplicate action decides what happens to records that match an
already-filed row:
  skip   drop the record (default)
  flag   file it with marked key fields
  allow  file it untouched`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := newApp()
		if err != nil {
			fatal(err)
		}
		defer a.Close()

		action := a.cfg.Ingest.DuplicateAction
		if scanAction != "" {
			action = types.DuplicateAction(scanAction)
		}
		maxFiles := a.cfg.Scan.MaxFiles
		if scanMaxFiles > 0 {
			maxFiles = scanMaxFiles
		}

		src, err := a.scanner(ctx)
		if err != nil {
			fatal(err)
		}

		p, err := pipeline.New(src, a.eng, a.mgr, pipeline.Options{
			PageSize: a.cfg.Scan.PageSize,
			MaxFiles: maxFiles,
			Action:   action,
		}, a.logger)
		if err != nil {
			fatal(err)
		}

		stats, err := p.Ingest(ctx)
		if err != nil {
			fatal(err)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Scan Complete ==="))
		fmt.Printf("  Run:      %s\n", stats.RunID)
		fmt.Printf("  Scanned:  %d files\n", stats.Scanned)
		fmt.Printf("  Filed:    %s rows\n", green(fmt.Sprintf("%d", stats.Append.AcceptedRows)))
		if stats.Append.SkippedRows > 0 {
			fmt.Printf("  Skipped:  %s duplicates\n", yellow(fmt.Sprintf("%d", stats.Append.SkippedRows)))
		}
		if stats.Append.FlaggedRows > 0 {
			fmt.Printf("  Flagged:  %s duplicates\n", yellow(fmt.Sprintf("%d", stats.Append.FlaggedRows)))
		}
		if stats.Append.FailedRows > 0 {
			fmt.Printf("  Failed:   %s rows\n", red(fmt.Sprintf("%d", stats.Append.FailedRows)))
		}
		if len(stats.Append.PartitionsUsed) > 0 {
			fmt.Printf("  Partitions: %v\n", stats.Append.PartitionsUsed)
		}
		fmt.Println()
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanAction, "action", "", "duplicate action: skip, flag, or allow (overrides config)")
	scanCmd.Flags().IntVar(&scanMaxFiles, "max-files", 0, "stop after this many files (0 = unlimited)")
	rootCmd.AddCommand(scanCmd)
}
