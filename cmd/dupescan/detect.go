package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dupescan/internal/pipeline"
	"dupescan/internal/types"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Analyze the source for duplicates without writing anything",
	Long: `Scan the configured source and run the full multi-pass duplicate
analysis: per-category strategies, cross-category hash matching, ranking,
and the summary report. Nothing is written to the metadata store.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := newApp()
		if err != nil {
			fatal(err)
		}
		defer a.Close()

		src, err := a.scanner(ctx)
		if err != nil {
			fatal(err)
		}

		p, err := pipeline.New(src, a.eng, nil, pipeline.Options{
			PageSize: a.cfg.Scan.PageSize,
			MaxFiles: a.cfg.Scan.MaxFiles,
		}, a.logger)
		if err != nil {
			fatal(err)
		}

		result, err := p.Analyze(ctx)
		if err != nil {
			fatal(err)
		}

		if detectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				fatal(err)
			}
			return
		}
		printReport(result)
	},
}

func printReport(result *types.DetectionResult) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Duplicate Analysis ==="))
	fmt.Printf("  Analyzed:  %d files\n", result.Stats.TotalAnalyzed)
	fmt.Printf("  Groups:    %d\n", result.Stats.TotalGroups)
	fmt.Printf("  Savings:   %.1f MB potential\n", result.Stats.PotentialSavingsMB)
	if len(result.Stats.StrategiesSkipped) > 0 {
		fmt.Printf("  %s %v\n", red("Skipped strategies:"), result.Stats.StrategiesSkipped)
	}

	s := result.Report.Summary
	fmt.Printf("\n%s\n", yellow("By confidence:"))
	fmt.Printf("  %s %d   %s %d   %s %d\n",
		green("high:"), s.HighConfidence,
		yellow("medium:"), s.MediumConfidence,
		gray("low:"), s.LowConfidence)

	if len(result.Report.TopGroups) > 0 {
		fmt.Printf("\n%s\n", yellow("Top priority groups:"))
		for _, g := range result.Report.TopGroups {
			confColor := gray
			switch g.Confidence {
			case types.ConfidenceHigh:
				confColor = green
			case types.ConfidenceMedium:
				confColor = yellow
			}
			fmt.Printf("  %s  %-22s %2d files  %8.1f MB  %s\n",
				confColor("●"), g.Type, g.MemberCount, g.PotentialSavingsMB, gray(g.GroupID))
			for _, name := range g.SampleNames {
				fmt.Printf("      %s\n", gray(name))
			}
		}
	}

	if len(result.Report.Recommendations) > 0 {
		fmt.Printf("\n%s\n", yellow("Recommendations:"))
		for _, r := range result.Report.Recommendations {
			fmt.Printf("  [%s] %s (%d groups", r.Priority, r.Action, r.GroupCount)
			if r.PotentialSavingsMB > 0 {
				fmt.Printf(", %.1f MB", r.PotentialSavingsMB)
			}
			fmt.Println(")")
		}
	}
	fmt.Println()
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(detectCmd)
}
