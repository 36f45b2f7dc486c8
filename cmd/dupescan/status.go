package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusReconcile bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container and partition capacity",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fatal(err)
		}
		defer a.Close()

		if statusReconcile {
			if err := a.mgr.Registry().Reconcile(context.Background(), a.store); err != nil {
				fatal(err)
			}
		}

		report := a.mgr.Status()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Partition Status ==="))
		fmt.Printf("  Containers: %d\n", report.ContainerCount)
		fmt.Printf("  Partitions: %d\n", report.PartitionCount)
		fmt.Printf("  Rows filed: %d\n", report.TotalRows)
		fmt.Printf("  Capacity:   %d rows free\n", report.AvailableCapacity)

		if len(report.Containers) == 0 {
			fmt.Printf("\n  %s\n\n", gray("No containers yet; run a scan first"))
			return
		}

		fmt.Printf("\n%s\n", yellow("Containers:"))
		for _, c := range report.Containers {
			spaceColor := green
			if c.AvailableSpace == 0 {
				spaceColor = red
			}
			fmt.Printf("  %-20s %2d partitions  %6d rows  %s free  %s\n",
				c.Name, c.PartitionCount, c.TotalRows,
				spaceColor(fmt.Sprintf("%6d", c.AvailableSpace)),
				gray(c.Handle))
		}
		fmt.Println()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusReconcile, "reconcile", false, "recount rows from the backend before reporting")
	rootCmd.AddCommand(statusCmd)
}
